package usecase

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/docauto/internal/core/domain"
)

// CandidateGroup holds the files discovered under one directory group. In
// flat mode there is a single group rooted at the query root.
type CandidateGroup struct {
	Dir   string
	Files []domain.CandidateFile
}

type matcher struct {
	exts    map[string]struct{}
	include []string
	exclude []string
	withDir bool
	skip    string
}

func newMatcher(q domain.DiscoveryQuery, withDir bool) matcher {
	exts := make(map[string]struct{})
	for _, ext := range domain.NormalizeExtensions(q.Extensions) {
		exts[ext] = struct{}{}
	}
	return matcher{exts: exts, include: q.Include, exclude: q.Exclude, withDir: withDir}
}

func (m matcher) accept(path string) bool {
	if m.skip != "" && path == m.skip {
		return false
	}
	name := filepath.Base(path)
	if _, ok := m.exts[strings.ToLower(filepath.Ext(name))]; !ok {
		return false
	}
	subjects := []string{name}
	if m.withDir {
		subjects = append(subjects, filepath.Base(filepath.Dir(path)))
	}
	for _, s := range subjects {
		if domain.ContainsAnyFold(s, m.exclude) {
			return false
		}
	}
	if len(m.include) == 0 {
		return true
	}
	for _, s := range subjects {
		if domain.ContainsAnyFold(s, m.include) {
			return true
		}
	}
	return false
}

func candidate(path, group string) domain.CandidateFile {
	name := filepath.Base(path)
	return domain.CandidateFile{
		Path:  path,
		Group: group,
		Tag:   strings.TrimSuffix(name, filepath.Ext(name)),
	}
}

// Discover finds candidate files. Without Recurse it lists regular files
// directly in Root; with Recurse every immediate child directory of Root is
// a group and is walked on its own. An empty result is not an error.
func Discover(ctx context.Context, q domain.DiscoveryQuery) ([]CandidateGroup, error) {
	return discover(ctx, q, "")
}

func discover(ctx context.Context, q domain.DiscoveryQuery, skip string) ([]CandidateGroup, error) {
	root, err := absRoot(q.Root)
	if err != nil {
		return nil, err
	}

	if !q.Recurse {
		m := newMatcher(q, false)
		m.skip = skip
		files, err := listFlat(ctx, root, m)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, nil
		}
		return []CandidateGroup{{Dir: root, Files: files}}, nil
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("discover: read %s: %w", root, err)
	}
	m := newMatcher(q, true)
	m.skip = skip
	var groups []CandidateGroup
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		files, err := walkTree(ctx, dir, dir, m)
		if err != nil {
			return nil, err
		}
		if len(files) > 0 {
			groups = append(groups, CandidateGroup{Dir: dir, Files: files})
		}
	}
	return groups, nil
}

// DiscoverTree walks the whole tree under Root, Root included, as a single
// group. skip is left out of the result; it is used to keep a previous
// output out of its own inputs.
func DiscoverTree(ctx context.Context, q domain.DiscoveryQuery, skip string) ([]CandidateGroup, error) {
	if !q.Recurse {
		return discover(ctx, q, skip)
	}
	root, err := absRoot(q.Root)
	if err != nil {
		return nil, err
	}
	m := newMatcher(q, false)
	m.skip = skip
	files, err := walkTree(ctx, root, root, m)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, nil
	}
	return []CandidateGroup{{Dir: root, Files: files}}, nil
}

func absRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", domain.WrapError(domain.ErrInvalidArgument, "discover", errors.New("root directory is required"))
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("discover: resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", domain.WrapError(domain.ErrNotFound, "discover", fmt.Errorf("root %s: %w", abs, err))
		}
		return "", fmt.Errorf("discover: stat %s: %w", abs, err)
	}
	if !info.IsDir() {
		return "", domain.WrapError(domain.ErrNotFound, "discover", fmt.Errorf("root %s is not a directory", abs))
	}
	return abs, nil
}

func listFlat(ctx context.Context, root string, m matcher) ([]domain.CandidateFile, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("discover: read %s: %w", root, err)
	}
	var files []domain.CandidateFile
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := filepath.Join(root, e.Name())
		if !isFile(p, e) {
			continue
		}
		if m.accept(p) {
			files = append(files, candidate(p, root))
		}
	}
	return files, nil
}

func walkTree(ctx context.Context, dir, group string, m matcher) ([]domain.CandidateFile, error) {
	var files []domain.CandidateFile
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if !isFile(p, d) {
			return nil
		}
		if m.accept(p) {
			files = append(files, candidate(p, group))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover: walk %s: %w", dir, err)
	}
	return files, nil
}

// isFile accepts regular files and symlinks that resolve to one. Symlinked
// directories are not followed.
func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
