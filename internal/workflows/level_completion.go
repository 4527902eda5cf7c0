package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// TaskQueue is the default queue the unlocker worker polls.
const TaskQueue = "level-unlocks"

// LevelCompletionResult is what the workflow reports back.
type LevelCompletionResult struct {
	Duplicate     bool
	UnlockedLevel int
}

// LevelCompletionWorkflow records a finished challenge, unlocks the next
// level and announces it. A replayed completion stops after the first step.
// A failed announcement does not undo the unlock.
func LevelCompletionWorkflow(ctx workflow.Context, event domain.ChallengeCompleted) (LevelCompletionResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting level completion workflow", "session", event.SessionID, "level", event.LevelID)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	var res LevelCompletionResult

	// Step 1: Persist the completion
	var inserted bool
	if err := workflow.ExecuteActivity(ctx, "RecordCompletion", event).Get(ctx, &inserted); err != nil {
		return res, err
	}
	if !inserted {
		logger.Info("Completion already recorded", "session", event.SessionID)
		res.Duplicate = true
		return res, nil
	}

	// Step 2: Unlock the next level
	var next int
	if err := workflow.ExecuteActivity(ctx, "UnlockNextLevel", event.PlayerID, event.LevelID).Get(ctx, &next); err != nil {
		return res, err
	}
	res.UnlockedLevel = next
	if next == 0 {
		logger.Info("Final level completed", "player", event.PlayerID)
		return res, nil
	}

	// Step 3: Announce
	if err := workflow.ExecuteActivity(ctx, "PublishLevelUnlocked", event.PlayerID, next).Get(ctx, nil); err != nil {
		logger.Warn("unlock announcement failed", "error", err)
	}

	logger.Info("Level unlocked", "player", event.PlayerID, "level", next)
	return res, nil
}
