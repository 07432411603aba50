package report

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/FranksOps/serprank/internal/analyzer"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleResults() []analyzer.KeywordResult {
	return []analyzer.KeywordResult{
		{
			Keyword: "seo tools",
			Found:   true,
			Rank:    2,
			Page:    1,
			URL:     "https://target.com/tools",
			Competitors: []analyzer.CompetitorEntry{
				{Rank: 1, Title: "Other", URL: "https://other.example/"},
			},
		},
		{
			Keyword:     "rank tracker",
			Competitors: []analyzer.CompetitorEntry{},
		},
	}
}

func TestExportXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")

	got, err := ExportXLSX(sampleResults(), path, quietLogger())
	if err != nil {
		t.Fatalf("ExportXLSX failed: %v", err)
	}
	if got != path {
		t.Errorf("expected returned path %s, got %s", path, got)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open exported file: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != MainSheet || sheets[1] != "seo tools competitors" {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows(MainSheet)
	if err != nil {
		t.Fatalf("failed to read main sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "keyword,found,rank,page,url,competitor_count" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if strings.Join(rows[1], ",") != "seo tools,TRUE,2,1,https://target.com/tools,1" {
		t.Errorf("unexpected found row %v", rows[1])
	}
	if rows[2][0] != "rank tracker" || rows[2][1] != "FALSE" || rows[2][2] != "" || rows[2][5] != "0" {
		t.Errorf("unexpected not-found row %v", rows[2])
	}

	comp, err := f.GetRows("seo tools competitors")
	if err != nil {
		t.Fatalf("failed to read competitor sheet: %v", err)
	}
	if len(comp) != 2 || strings.Join(comp[1], ",") != "1,Other,https://other.example/" {
		t.Errorf("unexpected competitor rows %v", comp)
	}
}

func TestExportXLSX_EmptyWritesNothing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.xlsx")
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	got, err := ExportXLSX(nil, path, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty path, got %q", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file to be written, stat err: %v", err)
	}
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("expected a warning, got %q", buf.String())
	}
}

func TestExportXLSX_SheetCollisionLastWins(t *testing.T) {
	results := []analyzer.KeywordResult{
		{
			Keyword:     "best running shoes for women",
			Competitors: []analyzer.CompetitorEntry{{Rank: 1, Title: "First", URL: "https://first.example/"}},
		},
		{
			Keyword:     "best running shoes for men",
			Competitors: []analyzer.CompetitorEntry{{Rank: 3, Title: "Second", URL: "https://second.example/"}},
		},
	}
	path := filepath.Join(t.TempDir(), "out.xlsx")
	if _, err := ExportXLSX(results, path, quietLogger()); err != nil {
		t.Fatalf("ExportXLSX failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("failed to open exported file: %v", err)
	}
	defer f.Close()

	name := "best running shoes  competitors"
	if got := CompetitorSheetName(results[0].Keyword); got != name {
		t.Fatalf("unexpected sheet name %q", got)
	}
	if len(f.GetSheetList()) != 2 {
		t.Errorf("expected main sheet plus one shared competitor sheet, got %v", f.GetSheetList())
	}
	rows, err := f.GetRows(name)
	if err != nil {
		t.Fatalf("failed to read competitor sheet: %v", err)
	}
	if len(rows) != 2 || rows[1][1] != "Second" {
		t.Errorf("expected the later keyword's competitors, got %v", rows)
	}
}

func TestCompetitorSheetName(t *testing.T) {
	tests := []struct {
		keyword string
		want    string
	}{
		{"seo", "seo competitors"},
		{"a/b:c?d*e[f]g\\h", "a_b_c_d_e_f_g_h competitors"},
		{"'quoted", "_quoted competitors"},
		{"搜索引擎优化工具推荐排名网站分析报告最新版本", "搜索引擎优化工具推荐排名网站分析报告最 competitors"},
	}
	for _, tt := range tests {
		got := CompetitorSheetName(tt.keyword)
		if got != tt.want {
			t.Errorf("CompetitorSheetName(%q) = %q, want %q", tt.keyword, got, tt.want)
		}
		if n := utf8.RuneCountInString(got); n > 31 {
			t.Errorf("sheet name %q has %d runes, limit is 31", got, n)
		}
	}
}
