package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"os"

	"github.com/rs/zerolog/log"

	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/workflowagents/loopagent"
	adkrunner "google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"

	"github.com/railguard/railguard/internal/guard"
)

const maxLoopIterations uint = 1_000_000

// DocumentRunner runs a guarded call for one document.
type DocumentRunner interface {
	Run(ctx context.Context, path string) (*guard.Outcome, error)
}

// Workflow drives guarded calls over a document queue until the queue
// is empty. Documents that fail are skipped for the rest of the run so
// the loop always advances; they stay pending on disk for the next run.
type Workflow struct {
	queue          *Queue
	runner         DocumentRunner
	continueOnFail bool
	failed         map[string]bool
}

// NewWorkflow constructs the batch ADK workflow.
func NewWorkflow(queue *Queue, runner DocumentRunner, continueOnFail bool) *Workflow {
	return &Workflow{
		queue:          queue,
		runner:         runner,
		continueOnFail: continueOnFail,
		failed:         map[string]bool{},
	}
}

// Run executes the batch loop agent until no documents remain.
func (w *Workflow) Run(ctx context.Context) error {
	iterationAgent, err := w.newIterationAgent()
	if err != nil {
		return fmt.Errorf("create batch iteration agent: %w", err)
	}
	loopAgent, err := w.newLoopAgent(iterationAgent)
	if err != nil {
		return fmt.Errorf("create batch loop agent: %w", err)
	}

	sessionService := session.InMemoryService()
	adkRunner, err := adkrunner.New(adkrunner.Config{
		AppName:        "railguard",
		Agent:          loopAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return fmt.Errorf("create ADK runner: %w", err)
	}

	userID := "railguard-user"
	sess, err := sessionService.Create(ctx, &session.CreateRequest{
		AppName: "railguard",
		UserID:  userID,
		State: map[string]any{
			"processed": 0,
		},
	})
	if err != nil {
		return fmt.Errorf("create ADK session: %w", err)
	}

	input := genai.NewContentFromText("Run railguard batch loop", genai.RoleUser)
	events := adkRunner.Run(ctx, userID, sess.Session.ID(), input, agent.RunConfig{})
	for _, runErr := range events {
		if runErr != nil {
			return runErr
		}
	}
	return nil
}

func (w *Workflow) newIterationAgent() (agent.Agent, error) {
	return agent.New(agent.Config{
		Name:        "RailguardBatchIteration",
		Description: "Runs one guarded call for the next pending document.",
		Run:         w.runIteration,
	})
}

func (w *Workflow) newLoopAgent(iterationAgent agent.Agent) (agent.Agent, error) {
	return loopagent.New(loopagent.Config{
		MaxIterations: maxLoopIterations,
		AgentConfig: agent.Config{
			Name:        "RailguardBatchAgent",
			Description: "Processes pending documents until the queue is empty.",
			SubAgents:   []agent.Agent{iterationAgent},
		},
	})
}

func (w *Workflow) runIteration(ctx agent.InvocationContext) iter.Seq2[*session.Event, error] {
	return func(yield func(*session.Event, error) bool) {
		if ctx.Ended() {
			return
		}

		docPath, err := w.nextRunnable()
		if err != nil {
			yield(nil, err)
			return
		}
		if docPath == "" {
			log.Info().Msg("batch: no pending documents left, stopping loop")
			ctx.EndInvocation()
			return
		}

		log.Info().Str("document", docPath).Msg("batch: processing document")
		if err := w.processDocument(ctx, docPath); err != nil {
			if !w.continueOnFail {
				yield(nil, err)
				return
			}
			w.failed[docPath] = true
			log.Error().Err(err).Str("document", docPath).Msg("batch: document failed, skipping for this run")
			return
		}

		processed := 0
		if value, stateErr := ctx.Session().State().Get("processed"); stateErr == nil {
			if parsed, ok := value.(int); ok {
				processed = parsed
			}
		}
		if err := ctx.Session().State().Set("processed", processed+1); err != nil {
			yield(nil, fmt.Errorf("set processed in session: %w", err))
			return
		}
	}
}

// nextRunnable returns the first pending document that has not already
// failed during this run, or "" when none remain.
func (w *Workflow) nextRunnable() (string, error) {
	pending, err := w.queue.Pending()
	if err != nil {
		return "", err
	}
	for _, path := range pending {
		if !w.failed[path] {
			return path, nil
		}
	}
	return "", nil
}

func (w *Workflow) processDocument(ctx context.Context, docPath string) error {
	outcome, err := w.runner.Run(ctx, docPath)
	if err != nil {
		return fmt.Errorf("guard %s: %w", docPath, err)
	}

	data, err := json.MarshalIndent(outcome, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal outcome for %s: %w", docPath, err)
	}
	resultPath := w.queue.ResultPath(docPath)
	if err := os.WriteFile(resultPath, data, 0o644); err != nil {
		return fmt.Errorf("write result %s: %w", resultPath, err)
	}

	log.Info().Str("document", docPath).Str("status", outcome.Status).
		Str("call_id", outcome.CallID).Msg("batch: document processed")
	return nil
}
