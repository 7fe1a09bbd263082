package ledongthuc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/ledongthuc/pdf"

	"github.com/kirillkom/docauto/internal/core/domain"
)

// Inspector reads page counts of finished documents.
type Inspector struct{}

func NewInspector() *Inspector {
	return &Inspector{}
}

func (i *Inspector) CountPages(_ context.Context, path string) (int, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, domain.WrapError(domain.ErrNotFound, "open pdf", err)
		}
		return 0, domain.WrapError(domain.ErrInvalidInput, "open pdf", fmt.Errorf("%s: %w", path, err))
	}
	defer f.Close()
	return r.NumPage(), nil
}
