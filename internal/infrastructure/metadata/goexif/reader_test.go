package goexif

import (
	"bytes"
	"context"
	"encoding/binary"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/docauto/internal/core/domain"
)

// writeTIFF stores a minimal little-endian TIFF carrying Model and DateTime.
func writeTIFF(t *testing.T, date string) string {
	t.Helper()
	var buf bytes.Buffer
	le := binary.LittleEndian
	buf.WriteString("II")
	_ = binary.Write(&buf, le, uint16(42))
	_ = binary.Write(&buf, le, uint32(8))

	dateBytes := append([]byte(date), 0)
	_ = binary.Write(&buf, le, uint16(2))
	// Model, ASCII, inline value.
	_ = binary.Write(&buf, le, uint16(0x0110))
	_ = binary.Write(&buf, le, uint16(2))
	_ = binary.Write(&buf, le, uint32(4))
	buf.WriteString("Cam\x00")
	// DateTime, ASCII, stored after the directory.
	_ = binary.Write(&buf, le, uint16(0x0132))
	_ = binary.Write(&buf, le, uint16(2))
	_ = binary.Write(&buf, le, uint32(len(dateBytes)))
	_ = binary.Write(&buf, le, uint32(38))
	_ = binary.Write(&buf, le, uint32(0))
	buf.Write(dateBytes)

	path := filepath.Join(t.TempDir(), "photo.tif")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write tiff: %v", err)
	}
	return path
}

func TestReadTagsAndDate(t *testing.T) {
	path := writeTIFF(t, "2021:06:15 10:20:30")

	meta, err := NewReader().Read(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if meta.Tags["Model"] != "Cam" {
		t.Fatalf("unexpected tags %v", meta.Tags)
	}
	if !meta.HasDateTaken() || meta.YearTaken() != 2021 || meta.DateTaken.Month() != 6 {
		t.Fatalf("unexpected date %v", meta.DateTaken)
	}
}

func TestReadAppliesFilter(t *testing.T) {
	path := writeTIFF(t, "2021:06:15 10:20:30")

	meta, err := NewReader().Read(context.Background(), path, func(tag string) bool { return tag == "DateTime" })
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if _, ok := meta.Tags["Model"]; ok || len(meta.Tags) != 1 {
		t.Fatalf("filter not applied: %v", meta.Tags)
	}
	if meta.YearTaken() != 2021 {
		t.Fatalf("date should not depend on filter, got %v", meta.DateTaken)
	}
}

func TestReadUnparsableDate(t *testing.T) {
	meta, err := NewReader().Read(context.Background(), writeTIFF(t, "sometime in june"), nil)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if meta.HasDateTaken() || meta.YearTaken() != 0 {
		t.Fatalf("expected no date, got %v", meta.DateTaken)
	}
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()
	r := NewReader()

	if _, err := r.Read(context.Background(), filepath.Join(dir, "missing.jpg"), nil); !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	plain := filepath.Join(dir, "plain.jpg")
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	if err := os.WriteFile(plain, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write jpeg: %v", err)
	}
	if _, err := r.Read(context.Background(), plain, nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for jpeg without exif, got %v", err)
	}
}
