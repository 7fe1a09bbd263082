package usecase

import (
	"cmp"
	"context"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/kirillkom/docauto/internal/core/domain"
	"github.com/kirillkom/docauto/internal/core/ports"
)

const (
	OrderName     = "name"
	OrderLength   = "length"
	OrderModTime  = "modtime"
	OrderExifDate = "exif-date"
)

type keyOrdering[K cmp.Ordered] struct {
	key func(string) (K, error)
}

func (o keyOrdering[K]) Sort(paths []string) error {
	type keyed struct {
		path string
		key  K
	}
	entries := make([]keyed, len(paths))
	for i, p := range paths {
		k, err := o.key(p)
		if err != nil {
			return fmt.Errorf("sort key for %s: %w", p, err)
		}
		entries[i] = keyed{path: p, key: k}
	}
	slices.SortStableFunc(entries, func(a, b keyed) int {
		return cmp.Compare(a.key, b.key)
	})
	for i, e := range entries {
		paths[i] = e.path
	}
	return nil
}

// ByKey orders paths by the key extracted from each one.
func ByKey[K cmp.Ordered](key func(string) K) domain.Ordering {
	return keyOrdering[K]{key: func(s string) (K, error) { return key(s), nil }}
}

// ByKeyErr is ByKey for key functions that can fail.
func ByKeyErr[K cmp.Ordered](key func(string) (K, error)) domain.Ordering {
	return keyOrdering[K]{key: key}
}

func Identity() domain.Ordering {
	return ByKey(func(s string) string { return s })
}

func ByLength() domain.Ordering {
	return ByKey(func(s string) int { return len(s) })
}

func ByModTime() domain.Ordering {
	return ByKeyErr(func(p string) (int64, error) {
		info, err := os.Stat(p)
		if err != nil {
			return 0, err
		}
		return info.ModTime().UnixNano(), nil
	})
}

// ByDateTaken orders images by their EXIF capture date. Unreadable metadata
// fails the sort.
func ByDateTaken(ctx context.Context, reader ports.MetadataReader) domain.Ordering {
	return ByKeyErr(func(p string) (int64, error) {
		md, err := reader.Read(ctx, p, isDateTag)
		if err != nil {
			return 0, err
		}
		return md.DateTaken.Unix(), nil
	})
}

func isDateTag(tag string) bool {
	return strings.HasPrefix(tag, "DateTime")
}

// OrderingByName resolves the orderings selectable from the command line and
// job files. reader is only needed for exif-date.
func OrderingByName(ctx context.Context, name string, reader ports.MetadataReader) (domain.Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", OrderName:
		return Identity(), nil
	case OrderLength:
		return ByLength(), nil
	case OrderModTime:
		return ByModTime(), nil
	case OrderExifDate:
		if reader == nil {
			return nil, domain.WrapError(domain.ErrInvalidArgument, "ordering", fmt.Errorf("%s needs a metadata reader", OrderExifDate))
		}
		return ByDateTaken(ctx, reader), nil
	default:
		return nil, domain.WrapError(domain.ErrInvalidArgument, "ordering", fmt.Errorf("unknown ordering %q", name))
	}
}

func orderOrIdentity(o domain.Ordering) domain.Ordering {
	if o == nil {
		return Identity()
	}
	return o
}

// Order flattens discovered groups into the final sequence: groups sorted by
// dirs, files inside each group sorted by files.
func Order(groups []CandidateGroup, files, dirs domain.Ordering) ([]domain.CandidateFile, error) {
	files = orderOrIdentity(files)
	dirs = orderOrIdentity(dirs)

	byDir := make(map[string]CandidateGroup, len(groups))
	dirPaths := make([]string, 0, len(groups))
	for _, g := range groups {
		byDir[g.Dir] = g
		dirPaths = append(dirPaths, g.Dir)
	}
	if len(dirPaths) > 1 {
		if err := dirs.Sort(dirPaths); err != nil {
			return nil, fmt.Errorf("order directories: %w", err)
		}
	}

	var out []domain.CandidateFile
	for _, dir := range dirPaths {
		g := byDir[dir]
		byPath := make(map[string]domain.CandidateFile, len(g.Files))
		paths := make([]string, 0, len(g.Files))
		for _, f := range g.Files {
			byPath[f.Path] = f
			paths = append(paths, f.Path)
		}
		if err := files.Sort(paths); err != nil {
			return nil, fmt.Errorf("order files in %s: %w", dir, err)
		}
		for _, p := range paths {
			out = append(out, byPath[p])
		}
	}
	return out, nil
}
