package organizer

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
)

// DuplicateReport renders duplicate groups for the CLI, largest waste first.
func DuplicateReport(groups []DuplicateGroup) string {
	if len(groups) == 0 {
		return "no duplicates found\n"
	}

	var sb strings.Builder
	wasted := lo.SumBy(groups, func(g DuplicateGroup) int64 { return g.WastedBytes() })
	surplus := lo.SumBy(groups, func(g DuplicateGroup) int { return len(g.Surplus) })
	fmt.Fprintf(&sb, "%d duplicate groups, %d surplus files, %s reclaimable\n\n",
		len(groups), surplus, humanize.IBytes(uint64(wasted)))

	for _, g := range groups {
		fmt.Fprintf(&sb, "%s  (%d copies, %s each)\n", shortHash(g.Hash), g.Count(), humanize.IBytes(uint64(g.Size)))
		fmt.Fprintf(&sb, "  keep  %s\n", g.Keeper.Path)
		for _, r := range g.Surplus {
			fmt.Fprintf(&sb, "  move  %s\n", r.Path)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// VersionReport renders version groups for the CLI.
func VersionReport(groups []VersionGroup) string {
	if len(groups) == 0 {
		return "no version chains found\n"
	}

	var sb strings.Builder
	older := lo.SumBy(groups, func(g VersionGroup) int { return len(g.Older()) })
	fmt.Fprintf(&sb, "%d version chains, %d superseded files\n\n", len(groups), older)

	for _, g := range groups {
		fmt.Fprintf(&sb, "%s%s\n", g.Key, g.Ext)
		for _, c := range g.Older() {
			fmt.Fprintf(&sb, "  old     %s\n", c.Record.Path)
		}
		fmt.Fprintf(&sb, "  latest  %s\n\n", g.Canonical().Record.Path)
	}
	return sb.String()
}

// PlanReport renders a plan grouped by reason.
func PlanReport(plan Plan) string {
	if len(plan) == 0 {
		return "nothing to do\n"
	}

	var sb strings.Builder
	byReason := lo.GroupBy(plan, func(op Operation) Reason { return op.Reason })
	fmt.Fprintf(&sb, "%d planned moves", len(plan))
	for _, reason := range []Reason{ReasonDuplicate, ReasonOldVersion, ReasonCategory} {
		if ops := byReason[reason]; len(ops) > 0 {
			fmt.Fprintf(&sb, ", %d %s", len(ops), reason)
		}
	}
	sb.WriteString("\n\n")

	for _, op := range plan {
		fmt.Fprintf(&sb, "%-12s %s\n  -> %s\n", op.Reason, op.Source, op.Destination)
	}
	return sb.String()
}

// HistoryReport renders run history, newest first.
func HistoryReport(runs []Run) string {
	if len(runs) == 0 {
		return "no runs recorded\n"
	}

	var sb strings.Builder
	for _, run := range runs {
		fmt.Fprintf(&sb, "%s  %-8s %-8s %s  planned=%d completed=%d failed=%d skipped=%d\n",
			run.ID, run.Mode, run.Status, humanize.Time(run.StartedAt),
			run.Counts.Planned, run.Counts.Completed, run.Counts.Failed, run.Counts.Skipped)
	}
	return sb.String()
}

// ResultReport renders the outcome of one execution or restore.
func ResultReport(r *Result) string {
	var sb strings.Builder
	label := "run"
	if r.DryRun {
		label = "dry run"
	}
	fmt.Fprintf(&sb, "%s %s: %d planned, %d completed, %d failed, %d skipped\n",
		label, r.RunID, len(r.Planned), len(r.Completed), len(r.Failed), len(r.Skipped))
	for _, f := range r.Failed {
		fmt.Fprintf(&sb, "  failed: %s (%s)\n", f.Op.Source, f.Err)
	}
	for _, op := range r.Skipped {
		fmt.Fprintf(&sb, "  skipped: %s\n", op.Source)
	}
	return sb.String()
}

func shortHash(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
