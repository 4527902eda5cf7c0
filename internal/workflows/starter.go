package workflows

import (
	"context"
	"errors"
	"fmt"

	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/cityhunt/internal/core/domain"
)

// Starter implements ports.CompletionSink by starting a
// LevelCompletionWorkflow per completion. The workflow id is derived from
// the session id, so a redelivered event does not start a second run.
type Starter struct {
	client    client.Client
	taskQueue string
}

// NewStarter creates a Starter on the given task queue.
func NewStarter(c client.Client, taskQueue string) *Starter {
	if taskQueue == "" {
		taskQueue = TaskQueue
	}
	return &Starter{client: c, taskQueue: taskQueue}
}

// WorkflowID returns the deterministic workflow id for a completion.
func WorkflowID(event domain.ChallengeCompleted) string {
	return "level-completion-" + event.SessionID
}

// ChallengeCompleted starts the workflow without waiting for it.
func (s *Starter) ChallengeCompleted(ctx context.Context, event domain.ChallengeCompleted) error {
	_, err := s.client.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
		ID:                    WorkflowID(event),
		TaskQueue:             s.taskQueue,
		WorkflowIDReusePolicy: enumspb.WORKFLOW_ID_REUSE_POLICY_REJECT_DUPLICATE,
	}, LevelCompletionWorkflow, event)
	var started *serviceerror.WorkflowExecutionAlreadyStarted
	if errors.As(err, &started) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("start level completion workflow: %w", err)
	}
	return nil
}
