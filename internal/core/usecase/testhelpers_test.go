package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/docauto/internal/core/domain"
	"github.com/kirillkom/docauto/internal/core/ports"
)

func touch(t *testing.T, root string, rel ...string) {
	t.Helper()
	for _, r := range rel {
		p := filepath.Join(root, r)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

func baseNames(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, filepath.Base(p))
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type normalizerFake struct {
	sources []string
	labels  []string
	failOn  string
	after   func()
}

func (f *normalizerFake) Normalize(_ context.Context, src domain.CandidateFile, label, dst string) error {
	if f.failOn != "" && filepath.Base(src.Path) == f.failOn {
		return domain.WrapError(domain.ErrCodecWrite, "write page", errors.New("disk full"))
	}
	f.sources = append(f.sources, src.Path)
	f.labels = append(f.labels, label)
	if f.after != nil {
		f.after()
	}
	return os.WriteFile(dst, []byte(src.Path), 0o644)
}

type stagingFake struct {
	root     string
	acquired int
	areas    []*stagingAreaFake
}

func (f *stagingFake) Acquire() ports.StagingArea {
	f.acquired++
	area := &stagingAreaFake{dir: filepath.Join(f.root, "stage")}
	f.areas = append(f.areas, area)
	return area
}

type stagingAreaFake struct {
	dir      string
	next     int
	cleanups int
}

func (a *stagingAreaFake) NextPagePath() (string, error) {
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return "", err
	}
	a.next++
	return filepath.Join(a.dir, string(rune('a'+a.next))+".png"), nil
}

func (a *stagingAreaFake) Dir() string { return a.dir }

func (a *stagingAreaFake) Cleanup() {
	a.cleanups++
	_ = os.RemoveAll(a.dir)
}

type packerFake struct {
	pages  []string
	layout domain.PageLayout
	calls  int
}

func (f *packerFake) Pack(_ context.Context, pages []string, layout domain.PageLayout, output string) error {
	f.calls++
	f.pages = append([]string(nil), pages...)
	f.layout = layout
	return os.WriteFile(output, []byte("%PDF-1.4"), 0o644)
}

type counterFake struct {
	override int
	packer   *packerFake
}

func (f *counterFake) CountPages(context.Context, string) (int, error) {
	if f.override > 0 {
		return f.override, nil
	}
	return len(f.packer.pages), nil
}

type progressFake struct {
	total      int
	increments int
	finished   bool
}

func (f *progressFake) Start(total int) { f.total = total }
func (f *progressFake) Increment()      { f.increments++ }
func (f *progressFake) Finish()         { f.finished = true }

type assembleFixture struct {
	normalizer *normalizerFake
	staging    *stagingFake
	packer     *packerFake
	counter    *counterFake
	progress   *progressFake
	uc         *AssembleDocumentUseCase
}

func newAssembleFixture(t *testing.T) *assembleFixture {
	t.Helper()
	fx := &assembleFixture{
		normalizer: &normalizerFake{},
		staging:    &stagingFake{root: t.TempDir()},
		packer:     &packerFake{},
		progress:   &progressFake{},
	}
	fx.counter = &counterFake{packer: fx.packer}
	fx.uc = NewAssembleDocumentUseCase(fx.normalizer, fx.staging, fx.packer, fx.counter, fx.progress, nil)
	return fx
}
