package staging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kirillkom/docauto/internal/core/ports"
)

const dirPrefix = "docauto-"

// Provider allocates uniquely named staging directories under a root.
type Provider struct {
	basePath string
}

func New(basePath string) *Provider {
	if basePath == "" {
		basePath = os.TempDir()
	}
	return &Provider{basePath: basePath}
}

func (p *Provider) Acquire() ports.StagingArea {
	return &Area{dir: filepath.Join(p.basePath, dirPrefix+uuid.NewString())}
}

// Area is owned by a single run. The directory is created on the first
// NextPagePath call.
type Area struct {
	dir     string
	created bool
}

func (a *Area) NextPagePath() (string, error) {
	if !a.created {
		if err := os.MkdirAll(a.dir, 0o700); err != nil {
			return "", fmt.Errorf("create staging dir: %w", err)
		}
		a.created = true
	}
	return filepath.Join(a.dir, uuid.NewString()+".png"), nil
}

func (a *Area) Dir() string {
	return a.dir
}

// Cleanup removes the directory. Failures are logged and dropped.
func (a *Area) Cleanup() {
	if !a.created {
		return
	}
	if err := os.RemoveAll(a.dir); err != nil {
		slog.Debug("staging_cleanup_failed", "dir", a.dir, "error", err.Error())
	}
}
