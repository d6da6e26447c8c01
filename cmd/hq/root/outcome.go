package root

import (
	"fmt"
	"io"

	"habitquest/internal/reconcile"
	"habitquest/internal/ui"
)

// printRewards summarizes what an event awarded. Badge and level-up
// notifications are printed by the sink.
func printRewards(w io.Writer, out *reconcile.Outcome) {
	if out == nil {
		return
	}
	if out.Duplicate || out.Result == nil {
		fmt.Fprintln(w, ui.Muted.Render("Already applied, nothing changed."))
		return
	}
	res := out.Result
	if res.XPAwarded > 0 || res.PPAwarded > 0 {
		fmt.Fprintf(w, "%s %s\n", ui.Good.Render(fmt.Sprintf("+%d XP +%d PP", res.XPAwarded, res.PPAwarded)),
			ui.Muted.Render(fmt.Sprintf("(level %d, streak %d)", res.LevelAfter, res.User.CurrentStreak)))
	}
}
