// Package export renders lead views as downloadable spreadsheets.
package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	LeadsSheet   = "Leads"
	SummarySheet = "Summary"

	// ContentType is the MIME type of an .xlsx file.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	headerRow = 4
)

type column struct {
	label string
	width float64
	value func(l *pipeline.Lead) interface{}
}

func money(d *decimal.Decimal) interface{} {
	if d == nil {
		return ""
	}
	return d.Round(2).InexactFloat64()
}

var leadColumns = []column{
	{"Lead ID", 12, func(l *pipeline.Lead) interface{} { return l.LeadID }},
	{"Agent", 18, func(l *pipeline.Lead) interface{} { return l.AgentName }},
	{"Client", 22, func(l *pipeline.Lead) interface{} { return l.ClientName }},
	{"Phone", 16, func(l *pipeline.Lead) interface{} { return l.ClientPhone }},
	{"Property Type", 14, func(l *pipeline.Lead) interface{} { return l.PropertyType }},
	{"Location", 20, func(l *pipeline.Lead) interface{} { return l.Location }},
	{"Stage", 14, func(l *pipeline.Lead) interface{} { return l.Stage().Label() }},
	{"Cold Call Date", 14, func(l *pipeline.Lead) interface{} { return l.ColdCall.Date }},
	{"Cold Call Time", 10, func(l *pipeline.Lead) interface{} { return l.ColdCall.Time }},
	{"Cold Call Status", 20, func(l *pipeline.Lead) interface{} { return l.ColdCall.Status }},
	{"Site Visit Date", 14, func(l *pipeline.Lead) interface{} { return l.SiteVisit.Date }},
	{"Site Visit Time", 10, func(l *pipeline.Lead) interface{} { return l.SiteVisit.Time }},
	{"Site Visit Status", 16, func(l *pipeline.Lead) interface{} { return l.SiteVisit.Status }},
	{"Booking Date", 14, func(l *pipeline.Lead) interface{} { return l.Booking.Date }},
	{"Booking Time", 10, func(l *pipeline.Lead) interface{} { return l.Booking.Time }},
	{"Booking Status", 14, func(l *pipeline.Lead) interface{} { return l.Booking.Status }},
	{"Booking ID", 14, func(l *pipeline.Lead) interface{} { return l.Booking.BookingID }},
	{"Booked In Next", 12, func(l *pipeline.Lead) interface{} { return l.BookedInNext }},
	{"Project Value", 16, func(l *pipeline.Lead) interface{} { return money(l.ProjectValue) }},
	{"Commission %", 12, func(l *pipeline.Lead) interface{} { return pipeline.FormatPercent(l.CommissionPercent) }},
	{"Agent Share", 16, func(l *pipeline.Lead) interface{} { return money(l.AgentShare()) }},
}

// LeadsWorkbook writes the leads in order to a Leads sheet and their stage
// counts and booked totals to a Summary sheet.
func LeadsWorkbook(title string, leads []*pipeline.Lead, generatedAt time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(LeadsSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	f.SetCellValue(LeadsSheet, "A1", title)
	f.SetCellStyle(LeadsSheet, "A1", "A1", titleStyle)
	f.SetRowHeight(LeadsSheet, 1, 30)
	f.SetCellValue(LeadsSheet, "A2", fmt.Sprintf("Generated: %s", generatedAt.Format("2006-01-02 15:04:05")))

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, col := range leadColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		f.SetCellValue(LeadsSheet, cell, col.label)
		f.SetCellStyle(LeadsSheet, cell, cell, headerStyle)
		name, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(LeadsSheet, name, name, col.width)
	}

	moneyStyle, _ := f.NewStyle(&excelize.Style{NumFmt: 4})
	for r, l := range leads {
		row := headerRow + 1 + r
		for i, col := range leadColumns {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			if err := f.SetCellValue(LeadsSheet, cell, col.value(l)); err != nil {
				return nil, err
			}
		}
	}
	if len(leads) > 0 {
		first, _ := excelize.CoordinatesToCellName(len(leadColumns)-2, headerRow+1)
		last, _ := excelize.CoordinatesToCellName(len(leadColumns), headerRow+len(leads))
		f.SetCellStyle(LeadsSheet, first, last, moneyStyle)
	}
	f.SetPanes(LeadsSheet, &excelize.Panes{Freeze: true, YSplit: headerRow, TopLeftCell: fmt.Sprintf("A%d", headerRow+1), ActivePane: "bottomLeft"})

	if err := writeSummary(f, pipeline.Summarize(leads)); err != nil {
		return nil, err
	}
	f.DeleteSheet("Sheet1")

	return f.WriteToBuffer()
}

func writeSummary(f *excelize.File, s pipeline.Summary) error {
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return err
	}
	bold, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})

	rows := [][]interface{}{{"Stage", "Leads"}}
	for _, st := range pipeline.Stages {
		rows = append(rows, []interface{}{st.Label(), s.ByStage[st]})
	}
	rows = append(rows,
		[]interface{}{"Total", s.Total},
		[]interface{}{},
		[]interface{}{"Booked Value", s.BookedValue.Round(2).InexactFloat64()},
		[]interface{}{"Agent Share (Booked)", s.AgentShareTotal.Round(2).InexactFloat64()},
	)
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if len(row) == 0 {
			continue
		}
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return err
		}
	}
	f.SetCellStyle(SummarySheet, "A1", "B1", bold)
	f.SetColWidth(SummarySheet, "A", "A", 24)
	return nil
}
