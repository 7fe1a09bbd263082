package goexif

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"github.com/kirillkom/docauto/internal/core/domain"
)

var dateFields = []exif.FieldName{exif.DateTime, exif.DateTimeOriginal, exif.DateTimeDigitized}

var dateLayouts = []string{"2006:01:02 15:04:05", "2006-01-02 15:04:05", "2006:01:02"}

// Reader decodes EXIF blocks of JPEG and TIFF files.
type Reader struct{}

func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) Read(_ context.Context, path string, filter func(tag string) bool) (domain.ImageMetadata, error) {
	x, err := decode(path)
	if err != nil {
		return domain.ImageMetadata{}, err
	}

	w := &tagCollector{filter: filter, tags: map[string]string{}}
	if err := x.Walk(w); err != nil {
		return domain.ImageMetadata{}, domain.WrapError(domain.ErrInvalidInput, "read exif tags", err)
	}
	return domain.ImageMetadata{
		Path:      path,
		Tags:      w.tags,
		DateTaken: dateTaken(x),
	}, nil
}

func decode(path string) (*exif.Exif, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "open image", err)
		}
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if x == nil || (err != nil && exif.IsCriticalError(err)) {
		if err == nil {
			err = errors.New("no exif block")
		}
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode exif", fmt.Errorf("%s: %w", path, err))
	}
	return x, nil
}

type tagCollector struct {
	filter func(string) bool
	tags   map[string]string
}

func (c *tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	key := string(name)
	if c.filter != nil && !c.filter(key) {
		return nil
	}
	c.tags[key] = tagValue(tag)
	return nil
}

func tagValue(tag *tiff.Tag) string {
	if tag.Format() == tiff.StringVal {
		if s, err := tag.StringVal(); err == nil {
			return strings.TrimSpace(s)
		}
	}
	return tag.String()
}

func dateTaken(x *exif.Exif) time.Time {
	for _, field := range dateFields {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		raw, err := tag.StringVal()
		if err != nil {
			continue
		}
		raw = strings.TrimSpace(raw)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, raw); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
