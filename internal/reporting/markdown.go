package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Available Token Signals\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Started: %s | Duration: %s\n\n",
		r.RunID, r.StartedAt.Format(time.RFC3339), r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond)))

	// Summary
	sb.WriteString("## Summary\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Candidates | %d |\n", r.Summary.Candidates))
	sb.WriteString(fmt.Sprintf("| Accepted | %d |\n", r.Summary.Accepted))
	for _, s := range r.Summary.Skipped {
		sb.WriteString(fmt.Sprintf("| Skipped: %s | %d |\n", s.Reason, s.Count))
	}
	sb.WriteString("\n")

	// Signals
	sb.WriteString("## Signals\n\n")
	if len(r.Signals) > 0 {
		sb.WriteString("| Token | Name | Artist | Price (tez) | Royalty % | Listed | Sold | Sold Rate | Collect Interval (min) |\n")
		sb.WriteString("|-------|------|--------|-------------|-----------|--------|------|-----------|------------------------|\n")
		for _, s := range r.Signals {
			artist := s.ArtistAddress
			if s.ArtistAlias != "" {
				artist = s.ArtistAlias + " (" + s.ArtistAddress + ")"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %.2f | %d | %d | %.4f | %s |\n",
				s.TokenID, escapeCell(s.TokenName), escapeCell(artist), orDash(s.Price),
				s.RoyaltyPercent, s.EditionsListed, s.EditionsSold, s.SoldRate, orDash(s.CollectMinutes)))
		}
	} else {
		sb.WriteString("No available tokens in this run.\n")
	}
	sb.WriteString("\n")

	// Diagnostics
	sb.WriteString("## Skipped Tokens\n\n")
	if len(r.Diagnostics) > 0 {
		sb.WriteString("| Token | Reason | Detail |\n")
		sb.WriteString("|-------|--------|--------|\n")
		for _, d := range r.Diagnostics {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s |\n", d.TokenID, d.Reason, escapeCell(d.Detail)))
		}
	} else {
		sb.WriteString("No tokens skipped.\n")
	}
	sb.WriteString("\n")

	// Run history
	if len(r.RecentRuns) > 0 {
		sb.WriteString("## Recent Runs\n\n")
		sb.WriteString("| Run | Started | Candidates | Accepted | Archive |\n")
		sb.WriteString("|-----|---------|------------|----------|---------|\n")
		for _, run := range r.RecentRuns {
			sb.WriteString(fmt.Sprintf("| `%s` | %s | %d | %d | %s |\n",
				run.RunID, run.StartedAt.Format(time.RFC3339), run.Candidates, run.Accepted, orDash(run.ArchiveKey)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// escapeCell keeps free text from breaking the table layout.
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}
