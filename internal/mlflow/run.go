package mlflow

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/databricks/databricks-sdk-go/service/ml"
	"go.uber.org/zap"

	"github.com/imishinist/runsum/internal/models"
)

// Tag and param keys that carry run header fields.
const (
	planNameKey  = "plan_name"
	detectorsKey = "detectors"
	motorsKey    = "motors"
	runNameTag   = "mlflow.runName"
)

var exitStatuses = map[string]models.ExitStatus{
	"FINISHED": models.ExitStatusSuccess,
	"FAILED":   models.ExitStatusFail,
	"KILLED":   models.ExitStatusAbort,
}

// Runs searches the experiment for runs started at or after since, oldest
// first. Pages are fetched as the sequence is consumed.
func (c *Client) Runs(ctx context.Context, since time.Time) iter.Seq2[models.Run, error] {
	return func(yield func(models.Run, error) bool) {
		request := ml.SearchRuns{
			ExperimentIds: []string{c.experimentID},
			Filter:        fmt.Sprintf("attributes.start_time >= %d", since.UnixMilli()),
			OrderBy:       []string{"attributes.start_time ASC"},
		}
		c.logger.Debug("searching runs",
			zap.String("experiment_id", c.experimentID),
			zap.String("filter", request.Filter))

		it := c.experiments.SearchRuns(ctx, request)
		for it.HasNext(ctx) {
			mlRun, err := it.Next(ctx)
			if err != nil {
				yield(models.Run{}, fmt.Errorf("failed to search runs: %w", err))
				return
			}

			run, err := ToRun(mlRun)
			if err != nil {
				yield(models.Run{}, err)
				return
			}
			if !yield(run, nil) {
				return
			}
		}
	}
}

// ToRun maps an MLflow run onto a run header. Runs that have not reached a
// terminal status have no stop document and are rejected.
func ToRun(run ml.Run) (models.Run, error) {
	if run.Info == nil {
		return models.Run{}, fmt.Errorf("run info: %w", models.ErrMissingField)
	}
	runID := run.Info.RunId

	values := make(map[string]string)
	tags := make(map[string]string)
	if run.Data != nil {
		for _, param := range run.Data.Params {
			values[param.Key] = param.Value
		}
		// Tags win over params
		for _, tag := range run.Data.Tags {
			values[tag.Key] = tag.Value
			tags[tag.Key] = tag.Value
		}
	}

	planName, ok := values[planNameKey]
	if !ok {
		planName = run.Info.RunName
	}
	if planName == "" {
		planName = tags[runNameTag]
	}
	if planName == "" {
		return models.Run{}, fmt.Errorf("run %s: start.plan_name: %w", runID, models.ErrMissingField)
	}

	if run.Info.StartTime == 0 {
		return models.Run{}, fmt.Errorf("run %s: start.time: %w", runID, models.ErrMissingField)
	}

	status := string(run.Info.Status)
	exitStatus, ok := exitStatuses[status]
	if !ok {
		return models.Run{}, fmt.Errorf("run %s is %s: stop.exit_status: %w", runID, status, models.ErrMissingField)
	}

	return models.Run{
		Start: models.RunStart{
			Time:      time.UnixMilli(run.Info.StartTime),
			PlanName:  planName,
			Detectors: splitList(values[detectorsKey]),
			Motors:    splitList(values[motorsKey]),
		},
		Stop: models.RunStop{ExitStatus: exitStatus},
	}, nil
}

// splitList splits a comma separated param value, dropping empty entries.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
