// Package ximage normalizes source images into fixed-size portrait pages.
package ximage

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif" // Register decoders
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/kirillkom/docauto/internal/core/domain"
)

const (
	labelX       = 10
	labelY       = 10
	labelScale   = 1.2
	labelPadding = 2
)

type Normalizer struct {
	target domain.PixelGrid
}

func NewNormalizer(target domain.PixelGrid) *Normalizer {
	if target.Width <= 0 || target.Height <= 0 {
		target = domain.A4DPI72
	}
	return &Normalizer{target: target}
}

// Normalize loads src, turns it to portrait, shrinks it into the target grid,
// stamps the label when non-empty and writes a PNG to dst.
func (n *Normalizer) Normalize(_ context.Context, src domain.CandidateFile, label string, dst string) error {
	img, err := Load(src.Path)
	if err != nil {
		return err
	}
	page := Render(img, n.target, label)
	return writePNG(dst, page)
}

// Load decodes any registered raster format.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "load image", err)
		}
		return nil, fmt.Errorf("load image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode image", fmt.Errorf("%s: %w", path, err))
	}
	return img, nil
}

// Render applies the page pipeline to an already decoded image.
func Render(img image.Image, target domain.PixelGrid, label string) *image.RGBA {
	img = ToPortrait(img)
	img = resizeToHeight(img, target.Height)
	img = resizeToWidth(img, target.Width)
	page := toRGBA(img)
	if label != "" {
		DrawLabel(page, label, labelX, labelY, labelScale)
	}
	return page
}

// ToPortrait rotates landscape images by -90 degrees (clockwise).
func ToPortrait(img image.Image) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= h {
		return img
	}
	src := toRGBA(img)
	dst := image.NewRGBA(image.Rect(0, 0, h, w))
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		dx := (h - 1 - y) * 4
		for x := 0; x < w; x++ {
			copy(dst.Pix[x*dst.Stride+dx:x*dst.Stride+dx+4], row[x*4:x*4+4])
		}
	}
	return dst
}

func resizeToHeight(img image.Image, height int) image.Image {
	b := img.Bounds()
	if height <= 0 || b.Dy() <= height {
		return img
	}
	w := int(math.Round(float64(b.Dx()) * float64(height) / float64(b.Dy())))
	return scale(img, max(w, 1), height)
}

func resizeToWidth(img image.Image, width int) image.Image {
	b := img.Bounds()
	if width <= 0 || b.Dx() <= width {
		return img
	}
	h := int(math.Round(float64(b.Dy()) * float64(width) / float64(b.Dx())))
	return scale(img, width, max(h, 1))
}

func scale(img image.Image, w, h int) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// DrawLabel writes black text on a white box whose top-left corner is (x, y).
func DrawLabel(dst *image.RGBA, text string, x, y int, factor float64) {
	face := basicfont.Face7x13
	d := &font.Drawer{Face: face}
	w := d.MeasureString(text).Ceil() + 2*labelPadding
	h := face.Ascent + face.Descent + 2*labelPadding

	box := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(box, box.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	d.Dst = box
	d.Src = image.NewUniform(color.Black)
	d.Dot = fixed.P(labelPadding, labelPadding+face.Ascent)
	d.DrawString(text)

	sw := int(math.Round(float64(w) * factor))
	sh := int(math.Round(float64(h) * factor))
	draw.NearestNeighbor.Scale(dst, image.Rect(x, y, x+sw, y+sh), box, box.Bounds(), draw.Src, nil)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return domain.WrapError(domain.ErrCodecWrite, "write page", err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return domain.WrapError(domain.ErrCodecWrite, "write page", fmt.Errorf("%s: %w", path, err))
	}
	if err := f.Close(); err != nil {
		return domain.WrapError(domain.ErrCodecWrite, "write page", fmt.Errorf("%s: %w", path, err))
	}
	return nil
}
