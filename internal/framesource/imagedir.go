package framesource

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
}

// ImageDirSource walks a directory of still images in lexical order, one
// frame per file. Used by batch mode.
type ImageDirSource struct {
	paths []string
	pos   int
}

func NewImageDirSource(dir string) (*ImageDirSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read image directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}
	return &ImageDirSource{paths: paths}, nil
}

func (s *ImageDirSource) Next(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	if s.pos >= len(s.paths) {
		return Frame{}, ErrExhausted
	}

	path := s.paths[s.pos]
	data, err := os.ReadFile(path)
	if err != nil {
		return Frame{}, fmt.Errorf("read frame %s: %w", path, err)
	}

	frame := Frame{
		Index:     s.pos,
		Timestamp: time.Now(),
		Path:      path,
		Data:      data,
	}
	s.pos++
	return frame, nil
}

func (s *ImageDirSource) Close() error {
	s.pos = len(s.paths)
	return nil
}

// Len returns the number of frames the source will supply in total.
func (s *ImageDirSource) Len() int {
	return len(s.paths)
}
