package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Source implements ports.QuestionSource over a directory of YAML
// questionnaire documents: <base>/<id>.yaml.
type Source struct {
	BasePath string
}

// NewSource creates a file-backed questionnaire source.
func NewSource(basePath string) *Source {
	if basePath == "" {
		basePath = "."
	}
	return &Source{BasePath: basePath}
}

// Get reads the raw document for the given questionnaire id.
func (s *Source) Get(ctx context.Context, id string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("questionnaire id cannot be empty")
	}

	path := filepath.Join(s.BasePath, id+".yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("questionnaire not found: %s", id)
		}
		return nil, fmt.Errorf("failed to read questionnaire file: %w", err)
	}
	return data, nil
}

// List returns the questionnaire ids found in the directory.
func (s *Source) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list questionnaires: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasSuffix(name, ".yaml") {
			ids = append(ids, strings.TrimSuffix(name, ".yaml"))
		}
	}
	return ids, nil
}
