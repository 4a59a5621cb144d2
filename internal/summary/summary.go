package summary

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/imishinist/runsum/internal/models"
)

const Header = "HH:MM  plan_name  detectors      motors         exit_status"

// Column widths. They are minimums: wider values push later columns right.
const (
	planWidth      = 11
	detectorsWidth = 15
	motorsWidth    = 15
	statusWidth    = 11
)

type Summarizer struct {
	out      io.Writer
	location *time.Location
	logger   *zap.Logger
}

type Option func(*Summarizer)

// WithLocation sets the zone start times are rendered in. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(s *Summarizer) {
		if loc != nil {
			s.location = loc
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Summarizer) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(out io.Writer, opts ...Option) *Summarizer {
	s := &Summarizer{
		out:      out,
		location: time.Local,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize writes the header and then one line per run, in order. The
// sequence is consumed once. The first error, whether from the sequence or
// from the writer, stops the summary; lines already written are kept.
func (s *Summarizer) Summarize(ctx context.Context, runs iter.Seq2[models.Run, error]) (int, error) {
	if _, err := fmt.Fprintln(s.out, Header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	count := 0
	for run, err := range runs {
		if err != nil {
			s.logger.Debug("run sequence failed", zap.Int("printed", count), zap.Error(err))
			return count, err
		}
		if err := ctx.Err(); err != nil {
			return count, err
		}
		if _, err := fmt.Fprintln(s.out, FormatRun(run, s.location)); err != nil {
			return count, fmt.Errorf("failed to write run %d: %w", count, err)
		}
		count++
	}

	s.logger.Debug("summary written", zap.Int("runs", count))
	return count, nil
}

// FormatRun renders one table line for run, without the trailing newline.
func FormatRun(run models.Run, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	var b strings.Builder
	b.WriteString(run.Start.Time.In(loc).Format("15:04"))
	b.WriteString("  ")
	b.WriteString(PadRight(run.Start.PlanName, planWidth))
	b.WriteString(PadRight(strings.Join(run.Start.Detectors, ","), detectorsWidth))
	b.WriteString(PadRight(strings.Join(run.Start.Motors, ","), motorsWidth))
	b.WriteString(PadLeft(string(run.Stop.ExitStatus), statusWidth))
	return b.String()
}
