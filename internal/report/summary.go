// Package report renders run results: the spreadsheet export, the console
// summary table and the JSON summary file.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/FranksOps/serprank/internal/pipeline"
)

// TopN is how many best-ranked keywords a Summary lists.
const TopN = 5

// KeywordLine is one keyword's row in a Summary.
type KeywordLine struct {
	Keyword     string `json:"keyword"`
	Found       bool   `json:"found"`
	Rank        int    `json:"rank,omitempty"`
	Page        int    `json:"page,omitempty"`
	URL         string `json:"url,omitempty"`
	Competitors int    `json:"competitors"`
}

// Summary aggregates one run.
type Summary struct {
	RunID           string        `json:"run_id"`
	Domain          string        `json:"domain"`
	Engine          string        `json:"engine"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	DurationSeconds float64       `json:"duration_seconds"`
	Keywords        int           `json:"keywords"`
	Found           int           `json:"found"`
	NotFound        int           `json:"not_found"`
	AverageRank     float64       `json:"average_rank"`
	Top             []KeywordLine `json:"top"`
	Lines           []KeywordLine `json:"lines"`
}

// Summarize processes a run report into summary metrics. AverageRank is
// taken over found keywords only and is 0 when none was found.
func Summarize(run pipeline.RunReport) Summary {
	s := Summary{
		RunID:     run.RunID,
		Domain:    run.Domain,
		Engine:    run.Engine,
		StartTime: run.StartedAt,
		EndTime:   run.FinishedAt,
		Keywords:  len(run.Results),
		Top:       []KeywordLine{},
		Lines:     make([]KeywordLine, 0, len(run.Results)),
	}
	if !run.FinishedAt.IsZero() {
		s.DurationSeconds = run.FinishedAt.Sub(run.StartedAt).Seconds()
	}

	rankSum := 0
	for _, r := range run.Results {
		line := KeywordLine{
			Keyword:     r.Keyword,
			Found:       r.Found,
			Rank:        r.Rank,
			Page:        r.Page,
			URL:         r.URL,
			Competitors: len(r.Competitors),
		}
		s.Lines = append(s.Lines, line)

		if !r.Found {
			s.NotFound++
			continue
		}
		s.Found++
		rankSum += r.Rank
		s.Top = append(s.Top, line)
	}

	if s.Found > 0 {
		s.AverageRank = float64(rankSum) / float64(s.Found)
	}

	sort.SliceStable(s.Top, func(i, j int) bool { return s.Top[i].Rank < s.Top[j].Rank })
	if len(s.Top) > TopN {
		s.Top = s.Top[:TopN]
	}
	return s
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable summary table to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetTitle(fmt.Sprintf("%s on %s", summary.Domain, summary.Engine))
	t.AppendHeader(table.Row{"Keyword", "Found", "Rank", "Page", "Competitors", "URL"})
	for _, l := range summary.Lines {
		rank, page := "-", "-"
		if l.Found {
			rank, page = strconv.Itoa(l.Rank), strconv.Itoa(l.Page)
		}
		t.AppendRow(table.Row{l.Keyword, yesNo(l.Found), rank, page, l.Competitors, l.URL})
	}
	t.AppendFooter(table.Row{"Total", fmt.Sprintf("%d/%d", summary.Found, summary.Keywords), averageText(summary), "", "", ""})

	if _, err := fmt.Fprintln(w, t.Render()); err != nil {
		return fmt.Errorf("report: write summary: %w", err)
	}

	if len(summary.Top) == 0 {
		return nil
	}
	top := table.NewWriter()
	top.SetStyle(table.StyleRounded)
	top.SetTitle("Best ranked")
	top.AppendHeader(table.Row{"#", "Keyword", "Rank"})
	for i, l := range summary.Top {
		top.AppendRow(table.Row{i + 1, l.Keyword, l.Rank})
	}
	if _, err := fmt.Fprintln(w, top.Render()); err != nil {
		return fmt.Errorf("report: write summary: %w", err)
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func averageText(s Summary) string {
	if s.Found == 0 {
		return "avg -"
	}
	return fmt.Sprintf("avg %.1f", s.AverageRank)
}
