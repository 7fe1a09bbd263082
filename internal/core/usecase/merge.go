package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/docauto/internal/core/domain"
	"github.com/kirillkom/docauto/internal/core/ports"
)

const opMerge = "merge_pdf"

type MergePDFUseCase struct {
	merger  ports.DocumentMerger
	metrics ports.RunMetrics
}

func NewMergePDFUseCase(merger ports.DocumentMerger, metrics ports.RunMetrics) *MergePDFUseCase {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &MergePDFUseCase{merger: merger, metrics: metrics}
}

// MergeDirectory merges every PDF under req.Root matching the filters. With
// Recurse the whole tree is searched and ordered as one list.
func (uc *MergePDFUseCase) MergeDirectory(ctx context.Context, req domain.MergeRequest) (result domain.MergeResult, err error) {
	started := time.Now()
	defer func() { uc.metrics.FinishRun(opMerge, time.Since(started), err) }()

	root, err := absRoot(req.Root)
	if err != nil {
		return result, err
	}
	output := resolveOutput(root, req.OutputPath, "")
	if err := preflightOutput(output, req.Overwrite); err != nil {
		return result, err
	}

	query := req.DiscoveryQuery
	query.Root = root
	query.Extensions = []string{".pdf"}
	groups, err := DiscoverTree(ctx, query, output)
	if err != nil {
		return result, err
	}
	if len(groups) == 0 {
		slog.Info("merge_no_candidates", "root", root)
		result.NoCandidates = true
		return result, nil
	}

	files, err := Order(groups, req.Order, nil)
	if err != nil {
		return result, err
	}
	inputs := make([]string, 0, len(files))
	for _, f := range files {
		inputs = append(inputs, f.Path)
	}
	return uc.merge(ctx, inputs, output)
}

// MergeList merges the given PDFs in the given order.
func (uc *MergePDFUseCase) MergeList(ctx context.Context, inputs []string, output string, overwrite bool) (result domain.MergeResult, err error) {
	started := time.Now()
	defer func() { uc.metrics.FinishRun(opMerge, time.Since(started), err) }()

	if strings.TrimSpace(output) == "" {
		return result, domain.WrapError(domain.ErrInvalidArgument, opMerge, errors.New("output path is required"))
	}
	if len(inputs) == 0 {
		result.NoCandidates = true
		return result, nil
	}
	output = resolveOutput("", output, "")
	if err := preflightOutput(output, overwrite); err != nil {
		return result, err
	}
	cleaned := make([]string, 0, len(inputs))
	for _, in := range inputs {
		cleaned = append(cleaned, filepath.Clean(in))
	}
	return uc.merge(ctx, cleaned, output)
}

func (uc *MergePDFUseCase) merge(ctx context.Context, inputs []string, output string) (domain.MergeResult, error) {
	slog.Info("merge_pdf", "inputs", len(inputs), "output", output)
	if err := uc.merger.Merge(ctx, inputs, output); err != nil {
		return domain.MergeResult{Sources: inputs}, fmt.Errorf("merge into %s: %w", output, err)
	}
	return domain.MergeResult{OutputPath: output, Sources: inputs}, nil
}
