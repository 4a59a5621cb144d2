package parser

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"unicode"

	"github.com/imishinist/runsum/internal/models"
)

// DecodeJSONRuns lazily decodes run documents from a JSON array or from a
// stream of JSON objects (one per line or simply concatenated). A decode or
// validation error is yielded once and ends the sequence.
func DecodeJSONRuns(reader io.Reader) iter.Seq2[models.Run, error] {
	return func(yield func(models.Run, error) bool) {
		br := bufio.NewReader(reader)
		first, err := peekNonSpace(br)
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			yield(models.Run{}, fmt.Errorf("failed to read JSON runs: %w", err))
			return
		}

		decoder := json.NewDecoder(br)
		array := first == '['
		if array {
			if _, err := decoder.Token(); err != nil {
				yield(models.Run{}, fmt.Errorf("failed to parse JSON runs: %w", err))
				return
			}
		}

		for i := 0; ; i++ {
			if array && !decoder.More() {
				if err := finishArray(decoder); err != nil {
					yield(models.Run{}, fmt.Errorf("failed to parse JSON runs: %w", err))
				}
				return
			}

			var raw RawRun
			err := decoder.Decode(&raw)
			if !array && errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(models.Run{}, fmt.Errorf("failed to parse JSON run %d: %w", i, err))
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

// DecodeJSONRun decodes separately stored start and stop documents. A nil or
// empty stop document means the run never finished.
func DecodeJSONRun(startDoc, stopDoc []byte) (models.Run, error) {
	var raw RawRun
	if err := json.Unmarshal(startDoc, &raw.Start); err != nil {
		return models.Run{}, fmt.Errorf("failed to parse start document: %w", err)
	}
	if len(stopDoc) > 0 {
		if err := json.Unmarshal(stopDoc, &raw.Stop); err != nil {
			return models.Run{}, fmt.Errorf("failed to parse stop document: %w", err)
		}
	}
	return raw.Validate()
}

// EncodeJSONRun is the inverse of DecodeJSONRun.
func EncodeJSONRun(run models.Run) (startDoc, stopDoc []byte, err error) {
	raw := FromRun(run)
	startDoc, err = json.Marshal(raw.Start)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode start document: %w", err)
	}
	stopDoc, err = json.Marshal(raw.Stop)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode stop document: %w", err)
	}
	return startDoc, stopDoc, nil
}

// finishArray consumes the closing bracket and requires nothing to follow it.
func finishArray(decoder *json.Decoder) error {
	if _, err := decoder.Token(); err != nil {
		return err
	}
	tok, err := decoder.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("unexpected %v after run array", tok)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !unicode.IsSpace(rune(b)) {
			return b, br.UnreadByte()
		}
	}
}
