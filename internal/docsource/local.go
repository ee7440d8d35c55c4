package docsource

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type localConfig struct {
	Dir string `json:"dir"`
}

type localSource struct {
	dir string
}

func init() {
	Register("local", createLocalSource)
}

func createLocalSource(args interface{}) (Source, error) {
	config := &localConfig{}
	if err := decodeConfig(args, config); err != nil {
		return nil, err
	}
	if config.Dir == "" {
		return nil, fmt.Errorf("local source dir is required")
	}
	return &localSource{dir: config.Dir}, nil
}

func (s *localSource) Name() string {
	return "local"
}

func (s *localSource) List(ctx context.Context) ([]string, error) {
	var ids []string
	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *localSource) Read(ctx context.Context, id string) ([]byte, error) {
	_ = ctx
	if strings.Contains(id, "..") {
		return nil, fmt.Errorf("invalid document id: %s", id)
	}
	return os.ReadFile(filepath.Join(s.dir, filepath.FromSlash(id)))
}
