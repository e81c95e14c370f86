package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/yuqie6/TimeBudget/internal/service"
)

func sampleSpent() service.TimeSpent {
	return service.TimeSpent{
		service.NoBudget:    {"2026-03-02": 40},
		service.BudgetOf(2): {"2026-03-03": 3661, "2026-03-02": 5},
		service.BudgetOf(1): {"2026-03-02": 0},
	}
}

func TestBudgetDayRowsOrder(t *testing.T) {
	rows := BudgetDayRows(sampleSpent(), map[int64]string{1: "games", 2: "video"})

	want := []struct{ budget, name, date string }{
		{"1", "games", "2026-03-02"},
		{"2", "video", "2026-03-02"},
		{"2", "video", "2026-03-03"},
		{"none", "", "2026-03-02"},
	}
	if len(rows) != len(want) {
		t.Fatalf("rows=%d, want %d: %+v", len(rows), len(want), rows)
	}
	for i, w := range want {
		r := rows[i]
		if r.Budget != w.budget || r.BudgetName != w.name || r.Date != w.date {
			t.Fatalf("row %d = %+v, want %+v", i, r, w)
		}
	}
	if rows[2].Duration != "01:01:01" {
		t.Fatalf("duration=%q", rows[2].Duration)
	}
}

func TestBudgetDaysCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := BudgetDaysCSV(&buf, BudgetDayRows(sampleSpent(), nil)); err != nil {
		t.Fatalf("BudgetDaysCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 5 {
		t.Fatalf("records=%d, want 5 (header + 4)", len(records))
	}
	if records[0][0] != "Budget" || records[4][0] != "none" || records[4][3] != "40" {
		t.Fatalf("unexpected csv: %v", records)
	}
}

func TestTitlesCSVEscapesSpecialCharacters(t *testing.T) {
	rows := []service.TitleTime{
		{LastSeen: 0, Seconds: 90, ClassName: "default_class", Title: `a "quoted", title`},
	}
	var buf bytes.Buffer
	if err := TitlesCSV(&buf, rows, time.UTC); err != nil {
		t.Fatalf("TitlesCSV: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if records[1][0] != `a "quoted", title` {
		t.Fatalf("title=%q", records[1][0])
	}
	if records[1][3] != "00:01:30" || records[1][4] != "1970-01-01T00:00:00Z" {
		t.Fatalf("row=%v", records[1])
	}
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := JSON(&buf, BudgetDayRows(sampleSpent(), nil)); err != nil {
		t.Fatalf("JSON: %v", err)
	}
	var decoded []BudgetDayRow
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(decoded) != 4 || decoded[3].Budget != "none" {
		t.Fatalf("decoded=%+v", decoded)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := map[int64]string{
		0:     "00:00:00",
		59:    "00:00:59",
		3600:  "01:00:00",
		-90:   "-00:01:30",
		90061: "25:01:01",
	}
	for in, want := range cases {
		if got := FormatDuration(in); got != want {
			t.Fatalf("FormatDuration(%d)=%q, want %q", in, got, want)
		}
	}
}
