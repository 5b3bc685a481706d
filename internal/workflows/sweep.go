package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// SweepWorkflowID is the fixed id of the cron sweep workflow, so only one
// schedule exists per namespace.
const SweepWorkflowID = "geodrop-expiry-sweep"

// SweepResult reports how many records each run removed.
type SweepResult struct {
	Offers int
	Notes  int
}

// SweepWorkflow purges expired offers and notes. It is started with a cron
// schedule; each run sweeps both stores independently so a failure on one
// does not block the other.
func SweepWorkflow(ctx workflow.Context) (SweepResult, error) {
	logger := workflow.GetLogger(ctx)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval: time.Second,
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var act *SweepActivities
	offersF := workflow.ExecuteActivity(ctx, act.SweepOffers)
	notesF := workflow.ExecuteActivity(ctx, act.SweepNotes)

	var result SweepResult
	offersErr := offersF.Get(ctx, &result.Offers)
	notesErr := notesF.Get(ctx, &result.Notes)

	if offersErr != nil {
		logger.Warn("offer sweep failed", "error", offersErr)
		return result, offersErr
	}
	if notesErr != nil {
		logger.Warn("note sweep failed", "error", notesErr)
		return result, notesErr
	}

	logger.Info("sweep finished", "offers", result.Offers, "notes", result.Notes)
	return result, nil
}
