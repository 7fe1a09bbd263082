package ports

import (
	"context"

	"github.com/kirillkom/docauto/internal/core/domain"
)

// DocumentAssembler is the inbound contract for image-to-PDF assembly.
type DocumentAssembler interface {
	Assemble(ctx context.Context, req domain.AssembleRequest) (domain.AssembleResult, error)
}

// PDFMergeService merges existing PDF files.
type PDFMergeService interface {
	MergeDirectory(ctx context.Context, req domain.MergeRequest) (domain.MergeResult, error)
	MergeList(ctx context.Context, inputs []string, output string, overwrite bool) (domain.MergeResult, error)
}

// WorkbookReader reads tabular blocks from spreadsheet files.
type WorkbookReader interface {
	Read(ctx context.Context, path string, sel domain.SheetSelector) (domain.Table, error)
	TableNames(ctx context.Context, path string) ([]string, error)
}

// MetadataReader reads embedded image metadata. A nil filter keeps every tag.
type MetadataReader interface {
	Read(ctx context.Context, path string, filter func(tag string) bool) (domain.ImageMetadata, error)
}

// VideoConcatenator joins clips into one output file.
type VideoConcatenator interface {
	Concatenate(ctx context.Context, clips []string, output string, method domain.ConcatMethod) error
}

// ArchiveService extracts and creates zip archives.
type ArchiveService interface {
	Extract(ctx context.Context, archive, dest string, filter domain.ZipFilter) ([]string, error)
	ZipDir(ctx context.Context, root, dest string, nameTerms []string, overwrite bool) ([]string, error)
}
