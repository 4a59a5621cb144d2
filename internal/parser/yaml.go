package parser

import (
	"errors"
	"fmt"
	"io"
	"iter"

	"gopkg.in/yaml.v3"

	"github.com/imishinist/runsum/internal/models"
)

// DecodeYAMLRuns lazily decodes a multi-document YAML stream, one run per
// document.
func DecodeYAMLRuns(reader io.Reader) iter.Seq2[models.Run, error] {
	return func(yield func(models.Run, error) bool) {
		decoder := yaml.NewDecoder(reader)

		for i := 0; ; i++ {
			var raw RawRun
			err := decoder.Decode(&raw)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(models.Run{}, fmt.Errorf("failed to parse YAML run %d: %w", i, err))
				return
			}

			run, err := raw.Validate()
			if err != nil {
				yield(models.Run{}, fmt.Errorf("run %d: %w", i, err))
				return
			}
			if !yield(run, nil) {
				return
			}
		}
	}
}
