package domain

import (
	"fmt"
	"strings"
)

const (
	LayoutFull   = "full"
	LayoutMargin = "margin"

	pointsPerInch = 72.0
	mmPerInch     = 25.4
)

// A4 page constants.
var (
	A4SizeCM     = [2]float64{21.0, 29.7}
	A4SizeInches = [2]float64{8.3, 11.7}

	A4DPI72  = PixelGrid{Width: 595, Height: 842}
	A4DPI150 = PixelGrid{Width: 1240, Height: 1754}
	A4DPI300 = PixelGrid{Width: 2480, Height: 3508}
	A4DPI600 = PixelGrid{Width: 4960, Height: 7016}
)

// PixelGrid is a target raster resolution for normalized pages.
type PixelGrid struct {
	Width  int
	Height int
}

// A4Grid returns the A4 pixel grid for one of the supported resolutions.
func A4Grid(dpi int) (PixelGrid, error) {
	switch dpi {
	case 72:
		return A4DPI72, nil
	case 150:
		return A4DPI150, nil
	case 300:
		return A4DPI300, nil
	case 600:
		return A4DPI600, nil
	default:
		return PixelGrid{}, WrapError(ErrInvalidArgument, "a4 grid", fmt.Errorf("unsupported dpi %d", dpi))
	}
}

// PageLayout maps a physical page onto PDF points. The image is fitted into
// the box, which is centered on the page.
type PageLayout struct {
	Name       string
	PageWidth  float64
	PageHeight float64
	BoxWidth   float64
	BoxHeight  float64
}

func MMToPoints(mm float64) float64 {
	return mm * pointsPerInch / mmPerInch
}

func FullLayout() PageLayout {
	w, h := MMToPoints(210), MMToPoints(297)
	return PageLayout{Name: LayoutFull, PageWidth: w, PageHeight: h, BoxWidth: w, BoxHeight: h}
}

// MarginLayout is a 168x238 mm page, the printable area of A4 with 21 mm
// side and 29.5 mm top and bottom margins, filled by the image.
func MarginLayout() PageLayout {
	w, h := MMToPoints(168), MMToPoints(238)
	return PageLayout{Name: LayoutMargin, PageWidth: w, PageHeight: h, BoxWidth: w, BoxHeight: h}
}

func LayoutByName(name string) (PageLayout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", LayoutMargin:
		return MarginLayout(), nil
	case LayoutFull:
		return FullLayout(), nil
	default:
		return PageLayout{}, WrapError(ErrInvalidArgument, "page layout", fmt.Errorf("unknown layout %q", name))
	}
}

// Fit returns the placement of an image of w×h into the layout box, aspect
// preserved and centered on the page.
func (l PageLayout) Fit(w, h float64) (x, y, fw, fh float64) {
	if w <= 0 || h <= 0 {
		return 0, 0, 0, 0
	}
	scale := l.BoxWidth / w
	if s := l.BoxHeight / h; s < scale {
		scale = s
	}
	fw, fh = w*scale, h*scale
	x = (l.PageWidth - fw) / 2
	y = (l.PageHeight - fh) / 2
	return x, y, fw, fh
}
