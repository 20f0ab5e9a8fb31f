/**
 * @description
 * Streak Engine: pure derivations of the displayed and next streak values from
 * the stored prediction records for "yesterday" and "today". No I/O.
 *
 * @notes
 * - Streaks are never decremented here. Only strict yesterday/today adjacency is
 *   consulted: a user returning after a multi-day absence sees base 0 and accrues
 *   0 + 1 on their next submission.
 * - A stored streak <= 0 on an existing today-record is treated as unset and
 *   falls back to yesterday's streak + 1.
 */

package streak

import "github.com/noka-project/backend/internal/models"

// Base returns the streak carried in from yesterday: the stored value, or 0
// when yesterday has no record or an unset streak.
func Base(yesterday *models.UserPrediction) int {
	if yesterday == nil || yesterday.Streak <= 0 {
		return 0
	}
	return yesterday.Streak
}

// Displayed computes the streak to show for the current view state.
// With a submitted today-record the stored streak wins; otherwise the view
// falls back to yesterday's base.
func Displayed(today, yesterday *models.UserPrediction) int {
	if today != nil {
		if today.Streak > 0 {
			return today.Streak
		}
		return Base(yesterday) + 1
	}
	return Base(yesterday)
}

// Next computes the streak to persist at submission time. It derives from
// yesterday's stored value, not from the currently displayed streak, so a
// stale read can never double-increment.
func Next(yesterday *models.UserPrediction) int {
	return Base(yesterday) + 1
}
