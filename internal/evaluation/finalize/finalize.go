// Package finalize decides whether a session may be submitted and performs the
// terminal draft -> completed transition.
package finalize

import (
	"context"
	"errors"
	"fmt"

	"roundwise/internal/evaluation/models"
	"roundwise/internal/evaluation/session"
	dErrors "roundwise/pkg/domain-errors"
	"roundwise/pkg/platform/sentinel"
	"roundwise/pkg/requestcontext"
)

// Stopper halts whatever keeps writing drafts for the session, normally its
// autosave scheduler.
type Stopper interface {
	Stop()
}

// CanFinalize reports whether every item has an answer. not_applicable counts
// as an answer; an empty round never qualifies.
func CanFinalize(sess *session.Session) bool {
	evaluated, total := sess.EvaluatedCount()
	return total > 0 && evaluated == total
}

// Finalize completes the session and stops its scheduler. The returned
// snapshot is stamped with requestcontext.Now(ctx).
//
// Errors:
//   - CodeIncompleteEvaluation: some item is unset; the session is untouched
//   - CodeAlreadyFinalized: the session was completed earlier
func Finalize(ctx context.Context, sess *session.Session, stopper Stopper) (models.FinalizedSnapshot, error) {
	snap, err := sess.Complete(requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, session.ErrIncomplete):
			evaluated, total := sess.EvaluatedCount()
			return models.FinalizedSnapshot{}, dErrors.Wrap(err, dErrors.CodeIncompleteEvaluation,
				fmt.Sprintf("%d of %d items evaluated", evaluated, total))
		case errors.Is(err, sentinel.ErrInvalidState):
			return models.FinalizedSnapshot{}, dErrors.Wrap(err, dErrors.CodeAlreadyFinalized, "round evaluation already finalized")
		default:
			return models.FinalizedSnapshot{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to finalize evaluation")
		}
	}

	if stopper != nil {
		stopper.Stop()
	}
	return snap, nil
}
