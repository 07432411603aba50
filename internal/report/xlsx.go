package report

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/FranksOps/serprank/internal/analyzer"
)

// Sheet naming.
const (
	MainSheet = "Main Results"
	// KeywordBudget is how many runes of a keyword go into its sheet name;
	// with CompetitorSuffix it fills the 31-rune sheet name limit.
	KeywordBudget    = 19
	CompetitorSuffix = " competitors"
)

var (
	mainHeader       = []any{"keyword", "found", "rank", "page", "url", "competitor_count"}
	competitorHeader = []any{"rank", "title", "url"}
	sheetNameCleaner = strings.NewReplacer(
		":", "_", `\`, "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_",
	)
)

// CompetitorSheetName returns the sheet name for keyword's competitors.
// Different keywords may map to the same name.
func CompetitorSheetName(keyword string) string {
	runes := []rune(keyword)
	if len(runes) > KeywordBudget {
		runes = runes[:KeywordBudget]
	}
	name := sheetNameCleaner.Replace(string(runes))
	if strings.HasPrefix(name, "'") {
		name = "_" + name[1:]
	}
	return name + CompetitorSuffix
}

// ExportXLSX writes results to a spreadsheet at path and returns the path.
// With no results nothing is written and "" is returned.
func ExportXLSX(results []analyzer.KeywordResult, path string, logger *slog.Logger) (string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(results) == 0 {
		logger.Warn("no results to export", "path", path)
		return "", nil
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), MainSheet); err != nil {
		return "", fmt.Errorf("report: rename main sheet: %w", err)
	}
	if err := writeRow(f, MainSheet, 1, mainHeader); err != nil {
		return "", err
	}
	for i, r := range results {
		row := []any{r.Keyword, r.Found, nil, nil, nil, len(r.Competitors)}
		if r.Found {
			row[2], row[3], row[4] = r.Rank, r.Page, r.URL
		}
		if err := writeRow(f, MainSheet, i+2, row); err != nil {
			return "", err
		}
	}

	for _, r := range results {
		if len(r.Competitors) == 0 {
			continue
		}
		name := CompetitorSheetName(r.Keyword)
		if err := resetSheet(f, name); err != nil {
			return "", err
		}
		if err := writeRow(f, name, 1, competitorHeader); err != nil {
			return "", err
		}
		for i, c := range r.Competitors {
			if err := writeRow(f, name, i+2, []any{c.Rank, c.Title, c.URL}); err != nil {
				return "", err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("report: save %s: %w", path, err)
	}
	logger.Info("results exported", "path", path, "keywords", len(results))
	return path, nil
}

// resetSheet creates an empty sheet called name, replacing any sheet that
// already has it.
func resetSheet(f *excelize.File, name string) error {
	idx, err := f.GetSheetIndex(name)
	if err != nil {
		return fmt.Errorf("report: sheet %q: %w", name, err)
	}
	if idx != -1 {
		if err := f.DeleteSheet(name); err != nil {
			return fmt.Errorf("report: replace sheet %q: %w", name, err)
		}
	}
	if _, err := f.NewSheet(name); err != nil {
		return fmt.Errorf("report: create sheet %q: %w", name, err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("report: row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("report: write %s!%s: %w", sheet, cell, err)
	}
	return nil
}
