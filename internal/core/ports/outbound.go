package ports

import (
	"context"
	"time"

	"github.com/kirillkom/docauto/internal/core/domain"
)

// PageNormalizer turns one source image into a fixed-size page image at dst.
type PageNormalizer interface {
	Normalize(ctx context.Context, src domain.CandidateFile, label string, dst string) error
}

// StagingArea hands out unique page paths inside a directory it owns.
type StagingArea interface {
	NextPagePath() (string, error)
	Dir() string
	Cleanup()
}

// StagingProvider allocates one StagingArea per run.
type StagingProvider interface {
	Acquire() StagingArea
}

// PagePacker writes page images, in order, into a single document.
type PagePacker interface {
	Pack(ctx context.Context, pages []string, layout domain.PageLayout, output string) error
}

// PageCounter reports the number of pages of a written document.
type PageCounter interface {
	CountPages(ctx context.Context, path string) (int, error)
}

// DocumentMerger concatenates existing PDF documents.
type DocumentMerger interface {
	Merge(ctx context.Context, inputs []string, output string) error
}

// ProgressReporter is purely observational.
type ProgressReporter interface {
	Start(total int)
	Increment()
	Finish()
}

// RunMetrics records run and stage outcomes.
type RunMetrics interface {
	ObserveStage(operation string, state domain.RunState, duration time.Duration)
	FinishRun(operation string, duration time.Duration, err error)
	AddPages(n int)
}
