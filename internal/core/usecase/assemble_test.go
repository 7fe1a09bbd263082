package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kirillkom/docauto/internal/core/domain"
)

func TestAssembleOrdersPagesAndCleansStaging(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "b.png", "a.png", "notes.txt")
	fx := newAssembleFixture(t)

	res, err := fx.uc.Assemble(context.Background(), domain.AssembleRequest{
		DiscoveryQuery: domain.DiscoveryQuery{Root: root},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if res.State != domain.StateDone {
		t.Fatalf("expected state done, got %s", res.State)
	}
	if !equalStrings(baseNames(res.Sources), []string{"a.png", "b.png"}) {
		t.Fatalf("unexpected source order %v", res.Sources)
	}
	if !equalStrings(fx.packer.pages, res.Pages) {
		t.Fatalf("packer pages %v differ from result pages %v", fx.packer.pages, res.Pages)
	}
	wantOut := filepath.Join(root, filepath.Base(root)+".pdf")
	if res.OutputPath != wantOut {
		t.Fatalf("expected default output %s, got %s", wantOut, res.OutputPath)
	}
	if fx.packer.layout.Name != domain.LayoutMargin {
		t.Fatalf("expected margin layout by default, got %s", fx.packer.layout.Name)
	}
	area := fx.staging.areas[0]
	if area.cleanups != 1 {
		t.Fatalf("expected one cleanup, got %d", area.cleanups)
	}
	if _, err := os.Stat(area.dir); !os.IsNotExist(err) {
		t.Fatalf("expected staging dir removed, stat err = %v", err)
	}
	if fx.progress.total != 2 || fx.progress.increments != 2 || !fx.progress.finished {
		t.Fatalf("unexpected progress %+v", fx.progress)
	}
}

func TestAssembleRecurseOrdersGroupsThenFiles(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "top.png", "Batch 2/x.png", "Batch 2/a.png", "Batch 1/z.png")
	fx := newAssembleFixture(t)

	res, err := fx.uc.Assemble(context.Background(), domain.AssembleRequest{
		DiscoveryQuery:     domain.DiscoveryQuery{Root: root, Recurse: true},
		LabelWithDirectory: true,
		LabelWithFilename:  true,
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	var rel []string
	for _, s := range res.Sources {
		r, _ := filepath.Rel(root, s)
		rel = append(rel, filepath.ToSlash(r))
	}
	want := []string{"Batch 1/z.png", "Batch 2/a.png", "Batch 2/x.png"}
	if !equalStrings(rel, want) {
		t.Fatalf("expected %v, got %v", want, rel)
	}
	if fx.normalizer.labels[0] != "Batch 1 z" {
		t.Fatalf("unexpected label %q", fx.normalizer.labels[0])
	}
}

func TestAssembleIsDeterministic(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "3.png", "10.png", "2.png", "1.jpg")

	var runs [][]string
	for i := 0; i < 2; i++ {
		fx := newAssembleFixture(t)
		res, err := fx.uc.Assemble(context.Background(), domain.AssembleRequest{
			DiscoveryQuery: domain.DiscoveryQuery{Root: root},
			FileOrder:      ByLength(),
			Overwrite:      true,
		})
		if err != nil {
			t.Fatalf("Assemble() error = %v", err)
		}
		runs = append(runs, baseNames(res.Sources))
	}
	if !equalStrings(runs[0], runs[1]) {
		t.Fatalf("runs differ: %v vs %v", runs[0], runs[1])
	}
	if !equalStrings(runs[0], []string{"1.jpg", "2.png", "3.png", "10.png"}) {
		t.Fatalf("unexpected order %v", runs[0])
	}
}

func TestAssembleOutputExistsWithoutOverwrite(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.png")
	out := filepath.Join(t.TempDir(), "out.pdf")
	touch(t, filepath.Dir(out), "out.pdf")
	fx := newAssembleFixture(t)

	_, err := fx.uc.Assemble(context.Background(), domain.AssembleRequest{
		DiscoveryQuery: domain.DiscoveryQuery{Root: root},
		OutputPath:     out,
	})
	if !domain.IsKind(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected already exists, got %v", err)
	}
	if fx.staging.acquired != 0 {
		t.Fatalf("staging must not be acquired, got %d", fx.staging.acquired)
	}
}

func TestAssembleEmptyRootReturnsNoCandidates(t *testing.T) {
	fx := newAssembleFixture(t)

	res, err := fx.uc.Assemble(context.Background(), domain.AssembleRequest{
		DiscoveryQuery: domain.DiscoveryQuery{Root: t.TempDir()},
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if !res.NoCandidates {
		t.Fatalf("expected no-candidates result")
	}
	if fx.staging.acquired != 0 || fx.packer.calls != 0 {
		t.Fatalf("expected no staging and no packing")
	}
}

func TestAssembleNormalizeFailureAbortsAndCleansUp(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.png", "b.png", "c.png")
	fx := newAssembleFixture(t)
	fx.normalizer.failOn = "b.png"

	res, err := fx.uc.Assemble(context.Background(), domain.AssembleRequest{
		DiscoveryQuery: domain.DiscoveryQuery{Root: root},
	})
	if !domain.IsKind(err, domain.ErrCodecWrite) {
		t.Fatalf("expected codec write error, got %v", err)
	}
	if !strings.Contains(err.Error(), "b.png") {
		t.Fatalf("expected offending file in error, got %v", err)
	}
	if res.State != domain.StateFailed {
		t.Fatalf("expected failed state, got %s", res.State)
	}
	if fx.packer.calls != 0 {
		t.Fatalf("packer must not run after a failed page")
	}
	if _, statErr := os.Stat(res.OutputPath); res.OutputPath != "" && statErr == nil {
		t.Fatalf("no output expected")
	}
	if fx.staging.areas[0].cleanups != 1 {
		t.Fatalf("expected cleanup after failure")
	}
}

func TestAssembleKeepStaging(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.png")
	fx := newAssembleFixture(t)

	res, err := fx.uc.Assemble(context.Background(), domain.AssembleRequest{
		DiscoveryQuery: domain.DiscoveryQuery{Root: root},
		KeepStaging:    true,
	})
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}
	if fx.staging.areas[0].cleanups != 0 {
		t.Fatalf("staging must be kept")
	}
	if _, err := os.Stat(res.Pages[0]); err != nil {
		t.Fatalf("expected kept page, stat err = %v", err)
	}
}

func TestAssemblePageCountMismatchFails(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.png")
	fx := newAssembleFixture(t)
	fx.counter.override = 3

	_, err := fx.uc.Assemble(context.Background(), domain.AssembleRequest{
		DiscoveryQuery: domain.DiscoveryQuery{Root: root},
	})
	if err == nil || !strings.Contains(err.Error(), "expected 1 pages, found 3") {
		t.Fatalf("expected page count error, got %v", err)
	}
}

func TestAssembleRejectsConflictingOutputSelectors(t *testing.T) {
	fx := newAssembleFixture(t)

	_, err := fx.uc.Assemble(context.Background(), domain.AssembleRequest{
		DiscoveryQuery: domain.DiscoveryQuery{Root: t.TempDir()},
		OutputPath:     "x.pdf",
		SaveToFolder:   t.TempDir(),
	})
	if !domain.IsKind(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
}

func TestAssembleMissingRoot(t *testing.T) {
	fx := newAssembleFixture(t)

	_, err := fx.uc.Assemble(context.Background(), domain.AssembleRequest{
		DiscoveryQuery: domain.DiscoveryQuery{Root: filepath.Join(t.TempDir(), "missing")},
	})
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAssembleCancelledContextFails(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.png")
	fx := newAssembleFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fx.uc.Assemble(ctx, domain.AssembleRequest{DiscoveryQuery: domain.DiscoveryQuery{Root: root}})
	if err == nil {
		t.Fatalf("expected cancellation error")
	}
}

func TestAssembleCancelledBetweenPagesCleansStaging(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "a.png", "b.png", "c.png")
	fx := newAssembleFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fx.normalizer.after = cancel

	result, err := fx.uc.Assemble(ctx, domain.AssembleRequest{DiscoveryQuery: domain.DiscoveryQuery{Root: root}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if result.State != domain.StateFailed {
		t.Fatalf("expected failed state, got %q", result.State)
	}
	if len(fx.normalizer.sources) != 1 {
		t.Fatalf("expected normalization to stop after one page, got %v", fx.normalizer.sources)
	}
	if fx.staging.acquired != 1 || fx.staging.areas[0].cleanups != 1 {
		t.Fatalf("expected one acquired and cleaned staging area, got acquired=%d", fx.staging.acquired)
	}
	if fx.packer.calls != 0 {
		t.Fatalf("packer must not run after cancellation, calls=%d", fx.packer.calls)
	}
}
