package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kirillkom/docauto/internal/core/domain"
	"github.com/kirillkom/docauto/internal/core/ports"
)

const opAssemble = "assemble"

type AssembleDocumentUseCase struct {
	normalizer ports.PageNormalizer
	staging    ports.StagingProvider
	packer     ports.PagePacker
	counter    ports.PageCounter
	progress   ports.ProgressReporter
	metrics    ports.RunMetrics
}

func NewAssembleDocumentUseCase(
	normalizer ports.PageNormalizer,
	staging ports.StagingProvider,
	packer ports.PagePacker,
	counter ports.PageCounter,
	progress ports.ProgressReporter,
	metrics ports.RunMetrics,
) *AssembleDocumentUseCase {
	if progress == nil {
		progress = nopProgress{}
	}
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &AssembleDocumentUseCase{
		normalizer: normalizer,
		staging:    staging,
		packer:     packer,
		counter:    counter,
		progress:   progress,
		metrics:    metrics,
	}
}

// Assemble discovers images under req.Root, orders them, normalizes each into
// a staged page and packs the pages into one PDF. Finding no images yields a
// result with NoCandidates set and a nil error.
func (uc *AssembleDocumentUseCase) Assemble(ctx context.Context, req domain.AssembleRequest) (result domain.AssembleResult, err error) {
	run := newRunTracker(opAssemble, uc.metrics)
	defer func() {
		if err != nil {
			run.enter(domain.StateFailed)
		}
		result.State = run.state
		uc.metrics.FinishRun(opAssemble, time.Since(run.started), err)
	}()

	layout, err := validateAssemble(req)
	if err != nil {
		return result, err
	}
	root, err := absRoot(req.Root)
	if err != nil {
		return result, err
	}
	output := resolveOutput(root, req.OutputPath, req.SaveToFolder)
	if err := preflightOutput(output, req.Overwrite); err != nil {
		return result, err
	}
	query := req.DiscoveryQuery
	query.Root = root
	if len(query.Extensions) == 0 {
		query.Extensions = domain.ImageExtensions
	}

	run.enter(domain.StateDiscovering)
	groups, err := Discover(ctx, query)
	if err != nil {
		return result, err
	}
	if len(groups) == 0 {
		slog.Info("assemble_no_candidates", "root", root)
		result.NoCandidates = true
		run.enter(domain.StateDone)
		return result, nil
	}

	run.enter(domain.StateSorting)
	files, err := Order(groups, req.FileOrder, req.DirOrder)
	if err != nil {
		return result, err
	}
	for _, f := range files {
		result.Sources = append(result.Sources, f.Path)
	}

	run.enter(domain.StateNormalizing)
	staging := uc.staging.Acquire()
	result.StagingDir = staging.Dir()
	defer func() {
		if req.KeepStaging {
			slog.Info("assemble_staging_kept", "dir", staging.Dir())
			return
		}
		if err != nil {
			staging.Cleanup()
		}
	}()

	result.Pages, err = uc.normalize(ctx, staging, files, req)
	if err != nil {
		return result, err
	}

	run.enter(domain.StateAssembling)
	slog.Info("assemble_packing", "pages", len(result.Pages), "output", output, "layout", layout.Name)
	if err := uc.pack(ctx, result.Pages, layout, output); err != nil {
		return result, err
	}
	result.OutputPath = output

	run.enter(domain.StateCleaning)
	if !req.KeepStaging {
		staging.Cleanup()
	}
	run.enter(domain.StateDone)
	return result, nil
}

func (uc *AssembleDocumentUseCase) normalize(
	ctx context.Context,
	staging ports.StagingArea,
	files []domain.CandidateFile,
	req domain.AssembleRequest,
) ([]string, error) {
	uc.progress.Start(len(files))
	defer uc.progress.Finish()

	pages := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("normalize pages: %w", err)
		}
		dst, err := staging.NextPagePath()
		if err != nil {
			return nil, domain.WrapError(domain.ErrCodecWrite, "stage page", err)
		}
		label := buildLabel(f, req.LabelWithDirectory, req.LabelWithFilename)
		if err := uc.normalizer.Normalize(ctx, f, label, dst); err != nil {
			return nil, fmt.Errorf("normalize %s: %w", f.Path, err)
		}
		pages = append(pages, dst)
		uc.progress.Increment()
	}
	uc.metrics.AddPages(len(pages))
	return pages, nil
}

func (uc *AssembleDocumentUseCase) pack(ctx context.Context, pages []string, layout domain.PageLayout, output string) error {
	if err := uc.packer.Pack(ctx, pages, layout, output); err != nil {
		return fmt.Errorf("pack pages into %s: %w", output, err)
	}
	if uc.counter == nil {
		return nil
	}
	n, err := uc.counter.CountPages(ctx, output)
	if err != nil {
		return fmt.Errorf("verify %s: %w", output, err)
	}
	if n != len(pages) {
		return fmt.Errorf("verify %s: expected %d pages, found %d", output, len(pages), n)
	}
	return nil
}

func validateAssemble(req domain.AssembleRequest) (domain.PageLayout, error) {
	if strings.TrimSpace(req.Root) == "" {
		return domain.PageLayout{}, domain.WrapError(domain.ErrInvalidArgument, opAssemble, errors.New("root directory is required"))
	}
	if req.OutputPath != "" && req.SaveToFolder != "" {
		return domain.PageLayout{}, domain.WrapError(domain.ErrInvalidArgument, opAssemble, errors.New("specify either an output path or a save folder, not both"))
	}
	return domain.LayoutByName(req.Layout)
}

func buildLabel(f domain.CandidateFile, withDir, withFile bool) string {
	var parts []string
	if withDir {
		parts = append(parts, filepath.Base(filepath.Dir(f.Path)))
	}
	if withFile {
		parts = append(parts, f.Tag)
	}
	return strings.Join(parts, " ")
}

// resolveOutput applies the default output name <folder>/<base(root)>.pdf.
func resolveOutput(root, output, saveTo string) string {
	if output != "" {
		abs, err := filepath.Abs(output)
		if err != nil {
			return filepath.Clean(output)
		}
		return abs
	}
	folder := root
	if saveTo != "" {
		folder = saveTo
		if abs, err := filepath.Abs(saveTo); err == nil {
			folder = abs
		}
	}
	return filepath.Join(folder, filepath.Base(root)+".pdf")
}

func preflightOutput(output string, overwrite bool) error {
	dir := filepath.Dir(output)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.WrapError(domain.ErrNotFound, "output folder", fmt.Errorf("%s: %w", dir, err))
		}
		return fmt.Errorf("output folder %s: %w", dir, err)
	}
	if !info.IsDir() {
		return domain.WrapError(domain.ErrNotFound, "output folder", fmt.Errorf("%s is not a directory", dir))
	}

	info, err = os.Stat(output)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err != nil:
		return fmt.Errorf("output %s: %w", output, err)
	case info.IsDir():
		return domain.WrapError(domain.ErrInvalidArgument, "output", fmt.Errorf("%s is a directory", output))
	case !overwrite:
		return domain.WrapError(domain.ErrAlreadyExists, "output", fmt.Errorf("%s exists", output))
	}
	return nil
}

type runTracker struct {
	operation string
	metrics   ports.RunMetrics
	started   time.Time
	state     domain.RunState
	entered   time.Time
}

func newRunTracker(operation string, metrics ports.RunMetrics) *runTracker {
	now := time.Now()
	return &runTracker{operation: operation, metrics: metrics, started: now, entered: now}
}

func (r *runTracker) enter(state domain.RunState) {
	now := time.Now()
	if r.state != "" {
		r.metrics.ObserveStage(r.operation, r.state, now.Sub(r.entered))
	}
	slog.Debug("run_state", "operation", r.operation, "from", string(r.state), "to", string(state))
	r.state = state
	r.entered = now
}

type nopProgress struct{}

func (nopProgress) Start(int)  {}
func (nopProgress) Increment() {}
func (nopProgress) Finish()    {}

type nopMetrics struct{}

func (nopMetrics) ObserveStage(string, domain.RunState, time.Duration) {}
func (nopMetrics) FinishRun(string, time.Duration, error)              {}
func (nopMetrics) AddPages(int)                                        {}
