package gofpdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/kirillkom/docauto/internal/core/domain"
)

type Packer struct {
	creator string
}

func NewPacker(creator string) *Packer {
	if creator == "" {
		creator = "docauto"
	}
	return &Packer{creator: creator}
}

// Pack writes one page per image, in order, each image fitted into the
// layout box. The file appears at output only once it is complete.
func (p *Packer) Pack(ctx context.Context, pages []string, layout domain.PageLayout, output string) error {
	if len(pages) == 0 {
		return domain.WrapError(domain.ErrInvalidArgument, "pack pages", errors.New("no pages"))
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: layout.PageWidth, Ht: layout.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator(p.creator, true)

	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return err
		}
		opts := gofpdf.ImageOptions{ImageType: imageType(page)}
		info := pdf.RegisterImageOptions(page, opts)
		if pdf.Err() {
			return fmt.Errorf("register %s: %w", page, pdf.Error())
		}
		x, y, w, h := layout.Fit(info.Width(), info.Height())
		pdf.AddPage()
		pdf.ImageOptions(page, x, y, w, h, false, opts, 0, "")
	}
	if pdf.Err() {
		return fmt.Errorf("build pdf: %w", pdf.Error())
	}

	return writeAtomic(output, func(f *os.File) error {
		return pdf.Output(f)
	})
}

func imageType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "JPG"
	case ".gif":
		return "GIF"
	default:
		return "PNG"
	}
}

// writeAtomic writes through a temp file in the output directory and
// renames it over output.
func writeAtomic(output string, write func(*os.File) error) error {
	f, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	tmp := f.Name()
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("write pdf: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}
