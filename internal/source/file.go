package source

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/imishinist/runsum/internal/models"
	"github.com/imishinist/runsum/internal/parser"
)

// File reads run documents from a JSON (.json, .jsonl, .ndjson) or YAML
// (.yaml, .yml) file. The file is opened on each call to Runs.
type File struct {
	Path string
}

func NewFile(path string) (*File, error) {
	if _, err := decoderFor(path); err != nil {
		return nil, err
	}
	return &File{Path: path}, nil
}

func (f *File) Runs(ctx context.Context, since time.Time) iter.Seq2[models.Run, error] {
	return func(yield func(models.Run, error) bool) {
		decode, err := decoderFor(f.Path)
		if err != nil {
			yield(models.Run{}, err)
			return
		}

		file, err := os.Open(f.Path)
		if err != nil {
			yield(models.Run{}, fmt.Errorf("failed to open file %s: %w", f.Path, err))
			return
		}
		defer file.Close()

		for run, err := range Since(decode(file), since) {
			if err == nil {
				err = ctx.Err()
			}
			if !yield(run, err) || err != nil {
				return
			}
		}
	}
}

func decoderFor(path string) (func(*os.File) iter.Seq2[models.Run, error], error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".jsonl", ".ndjson":
		return func(f *os.File) iter.Seq2[models.Run, error] { return parser.DecodeJSONRuns(f) }, nil
	case ".yaml", ".yml":
		return func(f *os.File) iter.Seq2[models.Run, error] { return parser.DecodeYAMLRuns(f) }, nil
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .json, .jsonl, .ndjson, .yaml, .yml)", ext)
	}
}
