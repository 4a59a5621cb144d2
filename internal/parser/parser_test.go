package parser

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imishinist/runsum/internal/models"
)

const uid = "0d3a5c2e-8f0b-4b8e-9a63-3c2b8d9f1e27"

func collect(t *testing.T, runs func(func(models.Run, error) bool)) ([]models.Run, error) {
	t.Helper()
	var out []models.Run
	for run, err := range runs {
		if err != nil {
			return out, err
		}
		out = append(out, run)
	}
	return out, nil
}

func TestDecodeJSONRuns(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		input := `[
			{"start": {"uid": "` + uid + `", "time": 1714554450.5, "plan_name": "scan", "detectors": ["det1", "det2"], "motors": ["motor"], "scan_id": 7},
			 "stop": {"exit_status": "success", "num_events": {"primary": 10}}},
			{"start": {"time": 1714554460, "plan_name": "count"}, "stop": {"exit_status": "abort"}}
		]`

		runs, err := collect(t, DecodeJSONRuns(strings.NewReader(input)))
		require.NoError(t, err)
		require.Len(t, runs, 2)

		assert.Equal(t, uid, runs[0].Start.UID)
		assert.Equal(t, "scan", runs[0].Start.PlanName)
		assert.Equal(t, []string{"det1", "det2"}, runs[0].Start.Detectors)
		assert.Equal(t, []string{"motor"}, runs[0].Start.Motors)
		assert.Equal(t, models.ExitStatusSuccess, runs[0].Stop.ExitStatus)
		assert.True(t, runs[0].Start.Time.Equal(time.Unix(1714554450, 500000000)))

		assert.Equal(t, "count", runs[1].Start.PlanName)
		assert.Empty(t, runs[1].Start.Detectors)
		assert.Empty(t, runs[1].Start.Motors)
		assert.Equal(t, models.ExitStatusAbort, runs[1].Stop.ExitStatus)
	})

	t.Run("object stream", func(t *testing.T) {
		input := `{"start": {"time": 1, "plan_name": "a"}, "stop": {"exit_status": "success"}}
{"start": {"time": 2, "plan_name": "b"}, "stop": {"exit_status": "fail"}}
`
		runs, err := collect(t, DecodeJSONRuns(strings.NewReader(input)))
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "a", runs[0].Start.PlanName)
		assert.Equal(t, "b", runs[1].Start.PlanName)
	})

	t.Run("empty input", func(t *testing.T) {
		for _, input := range []string{"", "  \n", "[]"} {
			runs, err := collect(t, DecodeJSONRuns(strings.NewReader(input)))
			require.NoError(t, err, "input %q", input)
			assert.Empty(t, runs)
		}
	})

	t.Run("missing exit_status stops after the valid runs", func(t *testing.T) {
		input := `[
			{"start": {"time": 1, "plan_name": "a"}, "stop": {"exit_status": "success"}},
			{"start": {"time": 2, "plan_name": "b"}, "stop": {}},
			{"start": {"time": 3, "plan_name": "c"}, "stop": {"exit_status": "success"}}
		]`
		runs, err := collect(t, DecodeJSONRuns(strings.NewReader(input)))
		require.ErrorIs(t, err, models.ErrMissingField)
		assert.Contains(t, err.Error(), "run 1")
		assert.Contains(t, err.Error(), "stop.exit_status")
		require.Len(t, runs, 1)
		assert.Equal(t, "a", runs[0].Start.PlanName)
	})

	t.Run("syntax error", func(t *testing.T) {
		_, err := collect(t, DecodeJSONRuns(strings.NewReader(`[{"start": `)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse JSON run 0")
	})

	t.Run("trailing data after array", func(t *testing.T) {
		for _, input := range []string{
			`[{"start": {"time": 1, "plan_name": "a"}, "stop": {"exit_status": "success"}}] garbage`,
			`[] {"start": {}}`,
		} {
			_, err := collect(t, DecodeJSONRuns(strings.NewReader(input)))
			require.Error(t, err, "input %q", input)
			assert.Contains(t, err.Error(), "failed to parse JSON runs")
		}

		runs, err := collect(t, DecodeJSONRuns(strings.NewReader("[]\n  \n")))
		require.NoError(t, err)
		assert.Empty(t, runs)
	})

	t.Run("time of wrong type", func(t *testing.T) {
		input := `[{"start": {"time": "noon", "plan_name": "a"}, "stop": {"exit_status": "success"}}]`
		_, err := collect(t, DecodeJSONRuns(strings.NewReader(input)))
		require.Error(t, err)
	})
}

func TestDecodeYAMLRuns(t *testing.T) {
	input := `start:
  time: 1714554450
  plan_name: scan
  detectors: [det1, det2]
stop:
  exit_status: success
---
start:
  time: 1714554460
  plan_name: rel_scan
  motors: [m1]
stop:
  exit_status: fail
`
	runs, err := collect(t, DecodeYAMLRuns(strings.NewReader(input)))
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, []string{"det1", "det2"}, runs[0].Start.Detectors)
	assert.Equal(t, "rel_scan", runs[1].Start.PlanName)
	assert.Equal(t, []string{"m1"}, runs[1].Start.Motors)
	assert.Equal(t, models.ExitStatusFail, runs[1].Stop.ExitStatus)

	_, err = collect(t, DecodeYAMLRuns(strings.NewReader("start:\n  time: 1\n")))
	require.ErrorIs(t, err, models.ErrMissingField)
}

func TestRawRunValidate(t *testing.T) {
	ts := 1714554450.0
	plan := "scan"
	status := "success"
	nan := math.NaN()
	huge := 1e12

	tests := []struct {
		name    string
		raw     RawRun
		wantErr error
		field   string
	}{
		{"missing start", RawRun{Stop: &RawStop{ExitStatus: &status}}, models.ErrMissingField, "start"},
		{"missing time", RawRun{Start: &RawStart{PlanName: &plan}, Stop: &RawStop{ExitStatus: &status}}, models.ErrMissingField, "start.time"},
		{"missing plan_name", RawRun{Start: &RawStart{Time: &ts}, Stop: &RawStop{ExitStatus: &status}}, models.ErrMissingField, "start.plan_name"},
		{"missing stop", RawRun{Start: &RawStart{Time: &ts, PlanName: &plan}}, models.ErrMissingField, "stop"},
		{"missing exit_status", RawRun{Start: &RawStart{Time: &ts, PlanName: &plan}, Stop: &RawStop{}}, models.ErrMissingField, "stop.exit_status"},
		{"nan time", RawRun{Start: &RawStart{Time: &nan, PlanName: &plan}, Stop: &RawStop{ExitStatus: &status}}, models.ErrInvalidTime, "start.time"},
		{"time out of range", RawRun{Start: &RawStart{Time: &huge, PlanName: &plan}, Stop: &RawStop{ExitStatus: &status}}, models.ErrInvalidTime, "start.time"},
		{"bad uid", RawRun{Start: &RawStart{UID: "not-a-uid", Time: &ts, PlanName: &plan}, Stop: &RawStop{ExitStatus: &status}}, models.ErrInvalidUID, "start.uid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.raw.Validate()
			require.ErrorIs(t, err, tt.wantErr)
			assert.True(t, strings.HasPrefix(err.Error(), tt.field), err.Error())
		})
	}
}

func TestJSONRunDocuments(t *testing.T) {
	run := models.Run{
		Start: models.RunStart{
			UID:       uid,
			Time:      time.Unix(1714554450, 250000000),
			PlanName:  "grid_scan",
			Detectors: []string{"det"},
			Motors:    []string{"m1", "m2"},
		},
		Stop: models.RunStop{ExitStatus: models.ExitStatusSuccess},
	}

	startDoc, stopDoc, err := EncodeJSONRun(run)
	require.NoError(t, err)
	assert.JSONEq(t, `{"uid": "`+uid+`", "time": 1714554450.25, "plan_name": "grid_scan", "detectors": ["det"], "motors": ["m1", "m2"]}`, string(startDoc))
	assert.JSONEq(t, `{"exit_status": "success"}`, string(stopDoc))

	got, err := DecodeJSONRun(startDoc, stopDoc)
	require.NoError(t, err)
	assert.Equal(t, run.Start.PlanName, got.Start.PlanName)
	assert.Equal(t, run.Start.Motors, got.Start.Motors)
	assert.True(t, run.Start.Time.Equal(got.Start.Time), "got %s want %s", got.Start.Time, run.Start.Time)

	_, err = DecodeJSONRun(startDoc, nil)
	require.ErrorIs(t, err, models.ErrMissingField)
}

func TestEpochRoundTrip(t *testing.T) {
	for _, want := range []time.Time{
		time.Unix(1714554450, 250000000),
		time.Unix(1714554450, 0),
		time.Unix(1714554450, 500000000),
		time.Unix(-2, 750000000),
	} {
		got, err := EpochToTime(TimeToEpoch(want))
		require.NoError(t, err)
		assert.True(t, want.Equal(got), "got %s want %s", got, want)
	}
}

func TestEpochToTime(t *testing.T) {
	got, err := EpochToTime(-1.5)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Unix(-2, 500000000)))

	_, err = EpochToTime(math.Inf(1))
	require.ErrorIs(t, err, models.ErrInvalidTime)
}
