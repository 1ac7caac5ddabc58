package reconciliation

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"
)

// ReportWriter renders a batch result and a link validation into an xlsx workbook.
type ReportWriter struct{}

func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

func (w *ReportWriter) Generate(res *Result, v *Validation) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summary := "Summary"
	if err := file.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}
	w.writeSummary(file, summary, res, v)

	if res != nil {
		if _, err := file.NewSheet("Matches"); err != nil {
			return nil, err
		}
		w.writeMatches(file, "Matches", res.Matches)
	}
	if v != nil {
		if _, err := file.NewSheet("Link issues"); err != nil {
			return nil, err
		}
		w.writeIssues(file, "Link issues", v.Issues)
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile stores the workbook in dir under a timestamped name and returns its path.
func (w *ReportWriter) WriteFile(dir string, res *Result, v *Validation, at time.Time) (string, error) {
	data, err := w.Generate(res, v)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("reconciliation_%s.xlsx", at.UTC().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (w *ReportWriter) writeSummary(file *excelize.File, sheet string, res *Result, v *Validation) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	row := 1
	if res != nil {
		rows := [][2]interface{}{
			{"Started at", formatTime(res.StartedAt)},
			{"Finished at", formatTime(res.FinishedAt)},
			{"Movements scanned", res.MovementsScanned},
			{"History entries scanned", res.EntriesScanned},
			{"Exact matches", res.Exact},
			{"Fuzzy matches", res.Fuzzy},
			{"Failed", res.Failed},
			{"One-directional", res.OneDirectional},
		}
		for _, r := range rows {
			set(fmt.Sprintf("A%d", row), r[0])
			set(fmt.Sprintf("B%d", row), r[1])
			row++
		}
		row++
	}
	if v != nil {
		set(fmt.Sprintf("A%d", row), "Links checked")
		set(fmt.Sprintf("B%d", row), v.MovementsChecked+v.EntriesChecked)
		row++
		set(fmt.Sprintf("A%d", row), "Link issues")
		set(fmt.Sprintf("B%d", row), len(v.Issues))
	}

	_ = file.SetColWidth(sheet, "A", "A", 28)
	_ = file.SetColWidth(sheet, "B", "B", 24)
}

func (w *ReportWriter) writeMatches(file *excelize.File, sheet string, matches []Match) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Movement", "Amount", "Date", "Result", "Tier", "History entry", "Distance (min)", "Reason"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}
	for i, m := range matches {
		row := i + 2
		set(fmt.Sprintf("A%d", row), m.MovementID.String())
		set(fmt.Sprintf("B%d", row), m.Amount.StringFixed(2))
		set(fmt.Sprintf("C%d", row), formatTime(m.Date))
		set(fmt.Sprintf("D%d", row), string(m.Type))
		set(fmt.Sprintf("E%d", row), string(m.Tier))
		if m.EntryID != nil {
			set(fmt.Sprintf("F%d", row), m.EntryID.String())
			set(fmt.Sprintf("G%d", row), m.Distance.Minutes())
		}
		set(fmt.Sprintf("H%d", row), m.Reason)
	}

	_ = file.SetColWidth(sheet, "A", "A", 38)
	_ = file.SetColWidth(sheet, "B", "E", 18)
	_ = file.SetColWidth(sheet, "F", "F", 38)
	_ = file.SetColWidth(sheet, "G", "G", 14)
	_ = file.SetColWidth(sheet, "H", "H", 48)
}

func (w *ReportWriter) writeIssues(file *excelize.File, sheet string, issues []LinkIssue) {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	headers := []string{"Kind", "Movement", "History entry", "Detail"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		set(cell, header)
	}
	for i, issue := range issues {
		row := i + 2
		set(fmt.Sprintf("A%d", row), string(issue.Kind))
		set(fmt.Sprintf("B%d", row), issue.MovementID.String())
		set(fmt.Sprintf("C%d", row), issue.EntryID.String())
		set(fmt.Sprintf("D%d", row), issue.Detail)
	}

	_ = file.SetColWidth(sheet, "A", "A", 36)
	_ = file.SetColWidth(sheet, "B", "C", 38)
	_ = file.SetColWidth(sheet, "D", "D", 56)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04:05")
}
