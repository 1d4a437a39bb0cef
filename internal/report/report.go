package report

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jobmatch/jobmatch/internal/jobboard"
	"github.com/jobmatch/jobmatch/internal/matching"
)

const (
	barWidth     = 30
	spinnerWidth = 6
	maxListItems = 3
)

// ProgressLine renders a snapshot as a single terminal line.
// Estimated bars are labelled so they are not mistaken for measured progress.
func ProgressLine(s matching.Snapshot) string {
	elapsed := s.Elapsed.Truncate(time.Second)

	if s.Indeterminate {
		pos := int(elapsed/time.Second) % spinnerWidth
		bar := strings.Repeat(" ", pos) + "<=>" + strings.Repeat(" ", spinnerWidth-pos)
		return fmt.Sprintf("[%s] %s elapsed, %s", bar, elapsed, s.State)
	}

	filled := int(s.Percent / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("#", filled) + strings.Repeat("-", barWidth-filled)
	return fmt.Sprintf("[%s] %3.0f%% (estimated, %s elapsed, %s)", bar, s.Percent, elapsed, s.State)
}

// Results writes one row per entry in the order given.
func Results(w io.Writer, summary matching.Summary, entries []matching.Entry) error {
	if summary.Detail != "" {
		if _, err := fmt.Fprintln(w, summary.Detail); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "processed %d of %d applications, %d results\n\n",
		summary.Processed, summary.Total, summary.Returned); err != nil {
		return err
	}

	return Entries(w, entries)
}

func Entries(w io.Writer, entries []matching.Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "APPLICATION\tMATCH\tSTRENGTHS\tWEAKNESSES\tSUMMARY")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%.0f%%\t%s\t%s\t%s\n",
			orDash(e.ApplicationID),
			e.Percent,
			orDash(joinFirst(e.Strengths, maxListItems)),
			orDash(joinFirst(e.Weaknesses, maxListItems)),
			orDash(e.Summary),
		)
	}

	return tw.Flush()
}

// EntriesFromResults adapts stored results to the same rows as a batch run.
func EntriesFromResults(results []*jobboard.MatchingResult) []matching.Entry {
	entries := make([]matching.Entry, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		entries = append(entries, matching.Entry{
			ResultID:      r.ID,
			ApplicationID: r.ApplicationID,
			Percent:       r.Percent(),
			Strengths:     r.Strengths,
			Weaknesses:    r.Weaknesses,
			Summary:       r.Explanation.Summary,
		})
	}
	return entries
}

// Result writes the full detail of a single matching result.
func Result(w io.Writer, r *jobboard.MatchingResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "application\t%s\n", orDash(r.ApplicationID))
	fmt.Fprintf(tw, "match\t%.0f%%\n", r.Percent())
	for _, category := range slices.Sorted(maps.Keys(r.SubScores)) {
		fmt.Fprintf(tw, "  %s\t%.1f\n", category, r.SubScores[category])
	}
	fmt.Fprintf(tw, "strengths\t%s\n", orDash(strings.Join(r.Strengths, "; ")))
	fmt.Fprintf(tw, "weaknesses\t%s\n", orDash(strings.Join(r.Weaknesses, "; ")))
	fmt.Fprintf(tw, "summary\t%s\n", orDash(r.Explanation.Summary))
	fmt.Fprintf(tw, "top strengths\t%s\n", orDash(strings.Join(r.Explanation.TopStrengths, "; ")))
	fmt.Fprintf(tw, "key gaps\t%s\n", orDash(strings.Join(r.Explanation.KeyGaps, "; ")))
	if r.Explanation.Note != "" {
		fmt.Fprintf(tw, "note\t%s\n", r.Explanation.Note)
	}

	return tw.Flush()
}

func joinFirst(items []string, n int) string {
	if len(items) > n {
		return strings.Join(items[:n], ", ") + fmt.Sprintf(" (+%d)", len(items)-n)
	}
	return strings.Join(items, ", ")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
