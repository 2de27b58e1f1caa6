package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// sagaStep is one remote call in a workflow. The stores offer no
// transactions, so a failed step aborts the rest and nothing is undone;
// leftover describes what a completed step leaves behind in that case.
type sagaStep struct {
	name     string
	run      func(ctx context.Context) error
	leftover string
}

// runSaga executes steps in order and stops at the first failure. The
// returned error names the failing step and wraps its cause.
func runSaga(ctx context.Context, log zerolog.Logger, workflow string, steps []sagaStep) error {
	for i, step := range steps {
		if err := step.run(ctx); err != nil {
			var leftovers []string
			for _, done := range steps[:i] {
				if done.leftover != "" {
					leftovers = append(leftovers, done.leftover)
				}
			}

			event := log.Error().Err(err).Str("workflow", workflow).Str("step", step.name)
			if len(leftovers) > 0 {
				event = event.Str("left_behind", strings.Join(leftovers, "; "))
			}
			event.Msg("Workflow aborted")

			return fmt.Errorf("%s: %s: %w", workflow, step.name, err)
		}
		log.Debug().Str("workflow", workflow).Str("step", step.name).Msg("Workflow step completed")
	}
	return nil
}
