package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/rxnen/eldersafe/internal/evaluator"
	"github.com/rxnen/eldersafe/internal/models"

	"github.com/xuri/excelize/v2"
)

// Data 导出报告所需的数据
type Data struct {
	GeneratedAt     time.Time
	Profile         *models.Profile
	Rooms           []models.Room
	Score           evaluator.ScoreReport
	Stats           evaluator.HazardStats
	Hazards         []evaluator.HazardSection
	Recommendations []evaluator.RoomRecommendations
	Timeline        []evaluator.TimelineEntry
}

// 工作表名称
const (
	SheetSummary  = "Summary"
	SheetHazards  = "Hazards"
	SheetProducts = "Products"
	SheetTimeline = "Timeline"
)

// HazardsHeader 隐患表表头
var HazardsHeader = []string{"Importance", "Room", "Room Type", "Question", "Hazard", "Status"}

// ProductsHeader 产品表表头
var ProductsHeader = []string{"Room", "Room Type", "Product", "Description", "Importance", "Link"}

// TimelineHeader 时间线表头
var TimelineHeader = []string{"Time", "Room", "Question", "Hazard", "Status"}

const timeLayout = "2006-01-02 15:04:05"

// GenerateWorkbook 生成居家安全评估 Excel 报告
func GenerateWorkbook(data *Data) ([]byte, error) {
	f := excelize.NewFile()

	if err := writeWorkbook(f, data); err != nil {
		f.Close()
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func writeWorkbook(f *excelize.File, data *Data) error {
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	// Sheet1 重命名为汇总页
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeRows(f, SheetSummary, nil, []float64{28, 40}, summaryRows(data), headerStyle); err != nil {
		return err
	}
	if err := writeSheet(f, SheetHazards, HazardsHeader, []float64{12, 20, 22, 10, 50, 16}, hazardRows(data), headerStyle); err != nil {
		return err
	}
	if err := writeSheet(f, SheetProducts, ProductsHeader, []float64{20, 22, 36, 50, 16, 40}, productRows(data), headerStyle); err != nil {
		return err
	}
	if err := writeSheet(f, SheetTimeline, TimelineHeader, []float64{20, 20, 10, 50, 16}, timelineRows(data), headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)
	return nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, widths []float64, rows [][]any, headerStyle int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	if err := writeRows(f, sheet, headers, widths, rows, headerStyle); err != nil {
		return err
	}

	// 冻结表头
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze panes: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, headers []string, widths []float64, rows [][]any, headerStyle int) error {
	row := 1
	if len(headers) > 0 {
		for col, header := range headers {
			cell, err := excelize.CoordinatesToCellName(col+1, 1)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, header); err != nil {
				return fmt.Errorf("failed to set header cell %s: %w", cell, err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
				return fmt.Errorf("failed to set header style: %w", err)
			}
		}
		row++
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for _, values := range rows {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
		}
		row++
	}
	return nil
}

func summaryRows(data *Data) [][]any {
	rows := [][]any{
		{"Generated At", data.GeneratedAt.Format(timeLayout)},
		{"Home Safety Score", data.Score.Score.String()},
	}
	if access := data.Score.Score.Accessibility(); access != "" {
		rows = append(rows, []any{"Accessibility", access + " accessible"})
	}
	rows = append(rows,
		[]any{"Rooms Assessed", data.Score.Rooms},
		[]any{"Open Hazards", data.Score.Hazards},
		[]any{"Suggested Precautions", data.Score.Precautions},
		[]any{"Hazards Fixed", fmt.Sprintf("%d/%d (%d%%)", data.Stats.Fixed, data.Stats.Total, data.Stats.Percentage)},
		[]any{"Hazards In Progress", data.Stats.InProgress},
	)

	if p := data.Profile; p != nil {
		mobility := string(p.Mobility)
		if mobility == "" {
			mobility = "not specified"
		}
		rows = append(rows,
			[]any{"Age", p.Age},
			[]any{"Mobility Aid", mobility},
			[]any{"Vision Impairment", yesNo(bool(p.Vision))},
			[]any{"Hearing Impairment", yesNo(bool(p.Hearing))},
		)
	}
	return rows
}

func hazardRows(data *Data) [][]any {
	var rows [][]any
	for _, section := range data.Hazards {
		for _, item := range section.Data {
			rows = append(rows, []any{
				section.Title,
				item.RoomName,
				string(item.RoomType),
				item.QuestionID + 1,
				item.Hazard,
				statusLabel(item.Status),
			})
		}
	}
	return rows
}

func productRows(data *Data) [][]any {
	var rows [][]any
	for _, room := range data.Recommendations {
		for _, p := range room.Data {
			rows = append(rows, []any{
				room.Title,
				string(room.RoomType),
				p.Name,
				p.Description,
				p.Label,
				p.Link,
			})
		}
	}
	return rows
}

func timelineRows(data *Data) [][]any {
	var rows [][]any
	for _, entry := range data.Timeline {
		rows = append(rows, []any{
			time.UnixMilli(entry.Timestamp).In(data.GeneratedAt.Location()).Format(timeLayout),
			entry.RoomName,
			entry.QuestionID + 1,
			entry.HazardText,
			statusLabel(entry.Status),
		})
	}
	return rows
}

func statusLabel(s models.HazardStatus) string {
	switch s {
	case models.StatusAddressed:
		return "Fixed"
	case models.StatusInProgress:
		return "In Progress"
	default:
		return "Not Addressed"
	}
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
