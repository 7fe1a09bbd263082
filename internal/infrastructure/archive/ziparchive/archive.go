package ziparchive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/kirillkom/docauto/internal/core/domain"
	"github.com/kirillkom/docauto/internal/core/ports"
)

type Archiver struct {
	progress ports.ProgressReporter
}

// New returns an archiver. progress may be nil.
func New(progress ports.ProgressReporter) *Archiver {
	return &Archiver{progress: progress}
}

// Extract unpacks the file entries of archive that pass filter into dest and
// returns the written paths. Existing files are overwritten.
func (a *Archiver) Extract(ctx context.Context, archive, dest string, filter domain.ZipFilter) ([]string, error) {
	file, err := os.Open(archive)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "open archive", err)
		}
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer file.Close()
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	// A reader returned together with an error flags insecure entry names,
	// which safeJoin rejects per entry.
	r, err := zip.NewReader(file, info.Size())
	if r == nil {
		return nil, domain.WrapError(domain.ErrNotAZip, "open archive", fmt.Errorf("%s: %w", archive, err))
	}

	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidArgument, "extract archive", err)
	}

	var selected []*zip.File
	exts := domain.NormalizeExtensions(filter.Extensions)
	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		if entryMatches(f.Name, filter, exts) {
			selected = append(selected, f)
		}
	}

	a.start(len(selected))
	defer a.finish()

	written := make([]string, 0, len(selected))
	for _, f := range selected {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		target, err := safeJoin(destAbs, f.Name)
		if err != nil {
			return written, err
		}
		if err := extractFile(f, target); err != nil {
			return written, err
		}
		written = append(written, target)
		a.increment()
	}
	slog.Debug("zip_extracted", "archive", archive, "dest", destAbs, "files", len(written))
	return written, nil
}

// ZipDir writes the regular files directly inside root whose names contain
// any of nameTerms into a new archive at dest. An empty term list keeps all.
func (a *Archiver) ZipDir(ctx context.Context, root, dest string, nameTerms []string, overwrite bool) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "zip directory", err)
		}
		return nil, fmt.Errorf("zip directory: %w", err)
	}
	if _, err := os.Stat(dest); err == nil && !overwrite {
		return nil, domain.WrapError(domain.ErrAlreadyExists, "zip directory", fmt.Errorf("%s", dest))
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidArgument, "zip directory", err)
	}
	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidArgument, "zip directory", err)
	}
	var names []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if filepath.Join(rootAbs, e.Name()) == destAbs {
			continue
		}
		if len(nameTerms) > 0 && !domain.ContainsAnyFold(e.Name(), nameTerms) {
			continue
		}
		names = append(names, e.Name())
	}

	a.start(len(names))
	defer a.finish()

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".docauto-*.zip")
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodecWrite, "zip directory", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	base := filepath.Base(filepath.Clean(root))
	zw := zip.NewWriter(tmp)
	stored := make([]string, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			tmp.Close()
			return nil, err
		}
		arcname := path.Join(base, name)
		if err := addFile(zw, filepath.Join(root, name), arcname); err != nil {
			tmp.Close()
			return nil, err
		}
		stored = append(stored, arcname)
		a.increment()
	}
	if err := zw.Close(); err != nil {
		tmp.Close()
		return nil, domain.WrapError(domain.ErrCodecWrite, "zip directory", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, domain.WrapError(domain.ErrCodecWrite, "zip directory", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return nil, domain.WrapError(domain.ErrCodecWrite, "zip directory", err)
	}
	slog.Debug("zip_written", "root", root, "dest", dest, "files", len(stored))
	return stored, nil
}

func entryMatches(name string, filter domain.ZipFilter, exts []string) bool {
	dir, file := path.Split(name)
	if len(filter.FolderTerms) > 0 && !domain.ContainsAnyFold(dir, filter.FolderTerms) {
		return false
	}
	// File terms match the stem; extensions have their own filter.
	stem := strings.TrimSuffix(file, path.Ext(file))
	if len(filter.FileTerms) > 0 && !domain.ContainsAnyFold(stem, filter.FileTerms) {
		return false
	}
	if len(exts) > 0 {
		ext := strings.ToLower(path.Ext(file))
		for _, e := range exts {
			if e == ext {
				return true
			}
		}
		return false
	}
	return true
}

func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(name) {
		return "", domain.WrapError(domain.ErrInvalidInput, "extract archive", fmt.Errorf("entry %q escapes destination", name))
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return domain.WrapError(domain.ErrCodecWrite, "extract archive", err)
	}
	src, err := f.Open()
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "extract archive", fmt.Errorf("%s: %w", f.Name, err))
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return domain.WrapError(domain.ErrCodecWrite, "extract archive", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return domain.WrapError(domain.ErrInvalidInput, "extract archive", fmt.Errorf("%s: %w", f.Name, err))
	}
	if err := dst.Close(); err != nil {
		return domain.WrapError(domain.ErrCodecWrite, "extract archive", err)
	}
	return nil
}

func addFile(zw *zip.Writer, src, arcname string) error {
	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("zip directory: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("zip directory: %w", err)
	}
	hdr, err := zip.FileInfoHeader(info)
	if err != nil {
		return domain.WrapError(domain.ErrCodecWrite, "zip directory", err)
	}
	hdr.Name = arcname
	hdr.Method = zip.Deflate
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return domain.WrapError(domain.ErrCodecWrite, "zip directory", err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return domain.WrapError(domain.ErrCodecWrite, "zip directory", err)
	}
	return nil
}

func (a *Archiver) start(total int) {
	if a.progress != nil {
		a.progress.Start(total)
	}
}

func (a *Archiver) increment() {
	if a.progress != nil {
		a.progress.Increment()
	}
}

func (a *Archiver) finish() {
	if a.progress != nil {
		a.progress.Finish()
	}
}
