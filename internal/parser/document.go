package parser

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/imishinist/runsum/internal/models"
)

// Largest epoch second that still renders as a four digit year (9999-12-31T23:59:59Z).
const maxEpochSeconds = 253402300799

// RawRun is a run header as stored by the run database. Required fields are
// pointers so that an absent key can be told apart from a zero value.
type RawRun struct {
	Start *RawStart `json:"start" yaml:"start"`
	Stop  *RawStop  `json:"stop" yaml:"stop"`
}

type RawStart struct {
	UID       string   `json:"uid,omitempty" yaml:"uid,omitempty"`
	Time      *float64 `json:"time" yaml:"time"`
	PlanName  *string  `json:"plan_name" yaml:"plan_name"`
	Detectors []string `json:"detectors,omitempty" yaml:"detectors,omitempty"`
	Motors    []string `json:"motors,omitempty" yaml:"motors,omitempty"`
}

type RawStop struct {
	ExitStatus *string `json:"exit_status" yaml:"exit_status"`
}

// Validate converts the raw document into a models.Run. It is the only place
// where record shape is checked.
func (r RawRun) Validate() (models.Run, error) {
	var run models.Run

	if r.Start == nil {
		return run, fmt.Errorf("start: %w", models.ErrMissingField)
	}
	if r.Start.Time == nil {
		return run, fmt.Errorf("start.time: %w", models.ErrMissingField)
	}
	if r.Start.PlanName == nil {
		return run, fmt.Errorf("start.plan_name: %w", models.ErrMissingField)
	}
	if r.Stop == nil {
		return run, fmt.Errorf("stop: %w", models.ErrMissingField)
	}
	if r.Stop.ExitStatus == nil {
		return run, fmt.Errorf("stop.exit_status: %w", models.ErrMissingField)
	}

	t, err := EpochToTime(*r.Start.Time)
	if err != nil {
		return run, fmt.Errorf("start.time: %w", err)
	}

	if r.Start.UID != "" {
		if _, err := uuid.Parse(r.Start.UID); err != nil {
			return run, fmt.Errorf("start.uid %q: %w", r.Start.UID, models.ErrInvalidUID)
		}
	}

	run.Start = models.RunStart{
		UID:       r.Start.UID,
		Time:      t,
		PlanName:  *r.Start.PlanName,
		Detectors: r.Start.Detectors,
		Motors:    r.Start.Motors,
	}
	run.Stop = models.RunStop{
		ExitStatus: models.ExitStatus(*r.Stop.ExitStatus),
	}
	return run, nil
}

// FromRun builds the stored document form of a run.
func FromRun(run models.Run) RawRun {
	ts := TimeToEpoch(run.Start.Time)
	plan := run.Start.PlanName
	status := string(run.Stop.ExitStatus)
	return RawRun{
		Start: &RawStart{
			UID:       run.Start.UID,
			Time:      &ts,
			PlanName:  &plan,
			Detectors: run.Start.Detectors,
			Motors:    run.Start.Motors,
		},
		Stop: &RawStop{ExitStatus: &status},
	}
}

// EpochToTime converts fractional seconds since the epoch to a time.Time.
func EpochToTime(sec float64) (time.Time, error) {
	if math.IsNaN(sec) || math.IsInf(sec, 0) {
		return time.Time{}, fmt.Errorf("%v: %w", sec, models.ErrInvalidTime)
	}
	if math.Abs(sec) > maxEpochSeconds {
		return time.Time{}, fmt.Errorf("%v out of range: %w", sec, models.ErrInvalidTime)
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(math.Round(frac*1e9))), nil
}

// TimeToEpoch is the inverse of EpochToTime. Whole seconds and the fraction are
// converted separately so the seconds part stays exact.
func TimeToEpoch(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}
