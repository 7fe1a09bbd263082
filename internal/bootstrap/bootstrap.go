package bootstrap

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/kirillkom/docauto/internal/config"
	"github.com/kirillkom/docauto/internal/core/domain"
	"github.com/kirillkom/docauto/internal/core/ports"
	"github.com/kirillkom/docauto/internal/core/usecase"
	"github.com/kirillkom/docauto/internal/infrastructure/archive/ziparchive"
	"github.com/kirillkom/docauto/internal/infrastructure/imaging/ximage"
	"github.com/kirillkom/docauto/internal/infrastructure/metadata/goexif"
	"github.com/kirillkom/docauto/internal/infrastructure/pdf/gofpdf"
	"github.com/kirillkom/docauto/internal/infrastructure/pdf/ledongthuc"
	"github.com/kirillkom/docauto/internal/infrastructure/pdf/pdfcpu"
	"github.com/kirillkom/docauto/internal/infrastructure/spreadsheet/excelize"
	"github.com/kirillkom/docauto/internal/infrastructure/storage/staging"
	"github.com/kirillkom/docauto/internal/infrastructure/video/ffmpeg"
	"github.com/kirillkom/docauto/internal/observability/metrics"
	"github.com/kirillkom/docauto/internal/observability/progress"
)

const serviceName = "docauto"

type App struct {
	Config config.Config

	AssembleUC ports.DocumentAssembler
	MergeUC    ports.PDFMergeService
	Workbooks  ports.WorkbookReader
	Metadata   ports.MetadataReader
	Video      ports.VideoConcatenator
	Archives   ports.ArchiveService

	Metrics *metrics.RunMetrics

	closeFn func()
}

// New wires every adapter. Progress bars are drawn on progressOut when
// enabled in cfg and progressOut is not nil.
func New(cfg config.Config, progressOut io.Writer) (*App, error) {
	grid, err := domain.A4Grid(cfg.PageDPI)
	if err != nil {
		return nil, fmt.Errorf("page grid: %w", err)
	}
	if _, err := domain.LayoutByName(cfg.Layout); err != nil {
		return nil, fmt.Errorf("page layout: %w", err)
	}

	var pageProgress, fileProgress ports.ProgressReporter = progress.Nop{}, progress.Nop{}
	if cfg.ProgressEnabled && progressOut != nil {
		pageProgress = progress.NewBar(progressOut, "pages", 40)
		fileProgress = progress.NewBar(progressOut, "files", 40)
	}

	runMetrics := metrics.NewRunMetrics(serviceName)
	metadata := goexif.NewReader()

	assembleUC := usecase.NewAssembleDocumentUseCase(
		ximage.NewNormalizer(grid),
		staging.New(cfg.StagingRoot),
		gofpdf.NewPacker(serviceName),
		ledongthuc.NewInspector(),
		pageProgress,
		runMetrics,
	)
	mergeUC := usecase.NewMergePDFUseCase(pdfcpu.NewMerger(), runMetrics)

	return &App{
		Config: cfg,

		AssembleUC: assembleUC,
		MergeUC:    mergeUC,
		Workbooks:  excelize.NewReader(),
		Metadata:   metadata,
		Video:      ffmpeg.NewConcatenator(cfg.FFmpegPath, cfg.FFprobePath, ffmpeg.ExecRunner),
		Archives:   ziparchive.New(fileProgress),

		Metrics: runMetrics,

		closeFn: func() {
			if cfg.MetricsFile == "" {
				return
			}
			if err := runMetrics.WriteTextfile(cfg.MetricsFile); err != nil {
				slog.Warn("metrics_flush_failed", "path", cfg.MetricsFile, "error", err)
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
