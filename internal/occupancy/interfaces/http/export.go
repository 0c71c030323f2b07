package http

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"chargepoint-occupancy/internal/occupancy/application"
	occupancy "chargepoint-occupancy/internal/occupancy/domain"
)

// BuildScoresPDF renders a scoring pass as a PDF report.
func BuildScoresPDF(title string, result *application.ScoringResult) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, title)
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Dates: %s to %s", occupancy.FormatDate(result.Window.StartDate), occupancy.FormatDate(result.Window.EndDate)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Hours: %s to %s", result.Window.StartTime, result.Window.EndTime))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Aggregator: %s", result.Aggregator))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Divisor: %d (%d days x %d ticks)", result.Divisor.Value(), result.Divisor.Days, result.Divisor.TicksPerDay))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", result.ComputedAt.Format(time.RFC3339)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(70, 6, "Address", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Longitude", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Latitude", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Charge types", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Score (%)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, loc := range result.Locations {
		pdf.CellFormat(70, 6, truncate(loc.Address, 40), "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.5f", loc.Location.Longitude), "1", 0, "R", false, 0, "")
		pdf.CellFormat(25, 6, fmt.Sprintf("%.5f", loc.Location.Latitude), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, joinCategories(loc.Categories), "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%.1f", loc.Score), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildScoresXLSX renders a scoring pass as a workbook with summary and locations sheets.
func BuildScoresXLSX(title string, result *application.ScoringResult) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	summarySheet := "summary"
	locationsSheet := "locations"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(locationsSheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", title)
	_ = f.SetCellValue(summarySheet, "A3", "Start date")
	_ = f.SetCellValue(summarySheet, "B3", occupancy.FormatDate(result.Window.StartDate))
	_ = f.SetCellValue(summarySheet, "A4", "End date")
	_ = f.SetCellValue(summarySheet, "B4", occupancy.FormatDate(result.Window.EndDate))
	_ = f.SetCellValue(summarySheet, "A5", "Start time")
	_ = f.SetCellValue(summarySheet, "B5", result.Window.StartTime.String())
	_ = f.SetCellValue(summarySheet, "A6", "End time")
	_ = f.SetCellValue(summarySheet, "B6", result.Window.EndTime.String())
	_ = f.SetCellValue(summarySheet, "A7", "Aggregator")
	_ = f.SetCellValue(summarySheet, "B7", result.Aggregator.String())
	_ = f.SetCellValue(summarySheet, "A8", "Divisor")
	_ = f.SetCellValue(summarySheet, "B8", result.Divisor.Value())
	_ = f.SetCellValue(summarySheet, "A9", "Charge points")
	_ = f.SetCellValue(summarySheet, "B9", result.Records)

	_ = f.SetCellValue(locationsSheet, "A1", "Address")
	_ = f.SetCellValue(locationsSheet, "B1", "Longitude")
	_ = f.SetCellValue(locationsSheet, "C1", "Latitude")
	_ = f.SetCellValue(locationsSheet, "D1", "Charge types")
	_ = f.SetCellValue(locationsSheet, "E1", "Charge points")
	_ = f.SetCellValue(locationsSheet, "F1", "Score (%)")
	for i, loc := range result.Locations {
		row := i + 2
		_ = f.SetCellValue(locationsSheet, fmt.Sprintf("A%d", row), loc.Address)
		_ = f.SetCellValue(locationsSheet, fmt.Sprintf("B%d", row), loc.Location.Longitude)
		_ = f.SetCellValue(locationsSheet, fmt.Sprintf("C%d", row), loc.Location.Latitude)
		_ = f.SetCellValue(locationsSheet, fmt.Sprintf("D%d", row), joinCategories(loc.Categories))
		_ = f.SetCellValue(locationsSheet, fmt.Sprintf("E%d", row), loc.Points)
		_ = f.SetCellValue(locationsSheet, fmt.Sprintf("F%d", row), loc.Score)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func joinCategories(categories []occupancy.Category) string {
	names := make([]string, 0, len(categories))
	for _, category := range categories {
		names = append(names, string(category))
	}
	return strings.Join(names, ", ")
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "~"
}
