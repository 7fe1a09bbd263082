package pdfcpu

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/kirillkom/docauto/internal/core/domain"
)

var disableConfigDir sync.Once

type Merger struct {
	conf *model.Configuration
}

func NewMerger() *Merger {
	// pdfcpu would otherwise create a config dir under the user's home.
	disableConfigDir.Do(api.DisableConfigDir)
	return &Merger{conf: model.NewDefaultConfiguration()}
}

// Merge concatenates inputs in order into output.
func (m *Merger) Merge(ctx context.Context, inputs []string, output string) error {
	if len(inputs) == 0 {
		return domain.WrapError(domain.ErrInvalidArgument, "merge pdf", errors.New("no inputs"))
	}
	for _, in := range inputs {
		if _, err := os.Stat(in); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return domain.WrapError(domain.ErrNotFound, "merge pdf", err)
			}
			return fmt.Errorf("merge pdf: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp := filepath.Join(filepath.Dir(output), "."+filepath.Base(output)+".merge.tmp")
	if err := api.MergeCreateFile(inputs, tmp, false, m.conf); err != nil {
		_ = os.Remove(tmp)
		return domain.WrapError(domain.ErrInvalidInput, "merge pdf", err)
	}
	if err := os.Rename(tmp, output); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}
