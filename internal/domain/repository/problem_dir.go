package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"challenge_grader/internal/common"
	"challenge_grader/internal/domain/model"

	"github.com/gosimple/slug"
	"github.com/pelletier/go-toml/v2"
	"github.com/puzpuzpuz/xsync/v3"
)

var problemFileExts = []string{".json", ".toml"}

type cachedProblem struct {
	modTime time.Time
	size    int64
	problem *model.Problem
}

// dirProblemRepository serves <dir>/<id>.json or <dir>/<id>.toml files holding
// public_tests and hidden_tests lists. Decoded files are cached until they change
// on disk.
type dirProblemRepository struct {
	dir   string
	cache *xsync.MapOf[string, cachedProblem]
}

func NewDirProblemRepository(dir string) ProblemRepository {
	return &dirProblemRepository{
		dir:   dir,
		cache: xsync.NewMapOf[string, cachedProblem](),
	}
}

func (r *dirProblemRepository) GetProblem(ctx context.Context, id string) (*model.Problem, error) {
	// ids become file names, so only slugs are accepted
	if !slug.IsSlug(id) {
		return nil, fmt.Errorf("problem %q: %w", id, common.ErrProblemNotFound)
	}
	for _, ext := range problemFileExts {
		p, err := r.load(id, filepath.Join(r.dir, id+ext))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if p.TotalTests() == 0 {
			return nil, fmt.Errorf("problem %q has no test cases: %w", id, common.ErrProblemNotFound)
		}
		return p, nil
	}
	return nil, fmt.Errorf("problem %q: %w", id, common.ErrProblemNotFound)
}

func (r *dirProblemRepository) load(id, path string) (*model.Problem, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if c, ok := r.cache.Load(path); ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return c.problem, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := decodeProblem(id, filepath.Ext(path), data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	r.cache.Store(path, cachedProblem{modTime: info.ModTime(), size: info.Size(), problem: p})
	return p, nil
}

func decodeProblem(id, ext string, data []byte) (*model.Problem, error) {
	p := &model.Problem{}
	switch ext {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(p); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, p); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported problem file type %q", ext)
	}
	p.ID = id
	return p, nil
}

func (r *dirProblemRepository) ListProblems(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("list problems: %w", err)
	}

	seen := map[string]bool{}
	ids := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		id := strings.TrimSuffix(e.Name(), ext)
		if seen[id] || !slug.IsSlug(id) {
			continue
		}
		p, err := r.load(id, filepath.Join(r.dir, e.Name()))
		if err != nil || p.TotalTests() == 0 {
			// unreadable or test-less files are not problems
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
