package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how a report is rendered.
type Format string

const (
	FormatText Format = "text"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// barWidth is the length of the bar drawn for the most voted session.
const barWidth = 40

// ParseFormat maps a format name to its Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatYAML, FormatJSON:
		return f, nil
	default:
		return FormatText, fmt.Errorf("unsupported report format: %q", name)
	}
}

// Render writes the report in the given format.
func Render(w io.Writer, r *Report, format Format) error {
	switch format {
	case FormatText, "":
		return renderText(w, r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	default:
		return fmt.Errorf("unsupported report format: %q", format)
	}
}

type textWriter struct {
	w   io.Writer
	err error
}

func (t *textWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

func renderText(w io.Writer, r *Report) error {
	t := &textWriter{w: w}

	t.printf("### Selection statistics (session: total student votes) ###\n")
	mostVotes, width := 0, 0
	for _, tally := range r.Tallies {
		mostVotes = max(mostVotes, tally.Votes)
		width = max(width, len(tally.Session))
	}
	for _, tally := range r.Tallies {
		bar := 0
		if mostVotes > 0 {
			bar = (tally.Votes*barWidth + mostVotes/2) / mostVotes
		}
		t.printf("%*s: %s %d\n", width, tally.Session, strings.Repeat("█", bar), tally.Votes)
	}
	t.printf("\n")

	t.printf("### Overall results ###\n")
	for _, c := range r.Overall {
		t.printf("%s: %4d/%d (%.2f%%)\n", c.Label, c.Count, r.Summary.Students, c.Percent)
	}
	t.printf("\n")

	t.printf("### Breakdown by grade ###\n")
	for _, g := range r.Grades {
		t.printf("GRADE %d:\n", g.Grade)
		for _, c := range g.Choices {
			t.printf("\t%s: %3d/%d (%.2f%%)\n", c.Label, c.Count, g.Students, c.Percent)
		}
	}
	t.printf("\n")

	t.printf("### Breakdown by session ### score of 1.0 is best\n")
	width = 0
	for _, s := range r.Sessions {
		width = max(width, len(s.Name))
	}
	for _, s := range r.Sessions {
		score := fmt.Sprintf("%.2f", s.Score)
		if s.Score >= 2 {
			score = "***" + score + "***"
		}
		full := ""
		if s.Full {
			full = fmt.Sprintf(" FULL (cutoff grade %d)", s.Cutoff)
		}
		t.printf("%*s: %2d/%d, score = %-10s%s\n", width, s.Name, s.Filled, s.Capacity, score, full)
	}
	t.printf("\n")

	t.printf("### %d total unassigned students ###\n", r.Summary.Unassigned)
	for _, u := range r.Unassigned {
		t.printf("grade %2d: %3d/%d (%.2f%%)\n", u.Grade, u.Unassigned, u.Students, u.Percent)
	}
	t.printf("\n")

	t.printf("### Trials ###\n")
	t.printf("best of %d trials: #%d, score %d (mean %.2f, stddev %.2f, min %d, max %d, seed %d)\n",
		r.Trials.Trials, r.Trials.BestIndex, r.Summary.Score,
		r.Trials.Mean, r.Trials.StdDev, r.Trials.Min, r.Trials.Max, r.Summary.Seed)
	return t.err
}
