package export

import (
	"testing"
	"time"

	"github.com/kayapalat/kayapalat-backend/internal/pipeline"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestLeadsWorkbook(t *testing.T) {
	pv := decimal.RequireFromString("500000")
	pc := decimal.RequireFromString("2")
	leads := []*pipeline.Lead{
		{
			LeadID: "LD00001", AgentName: "Amit", ClientName: "Mr. Sharma",
			ProjectValue: &pv, CommissionPercent: &pc,
			Booking: pipeline.BookingSlot{Status: "Booked", BookingID: "BK-1"},
		},
		{LeadID: "LD00002", AgentName: "Priya", ClientName: "Ms. Rao", ColdCall: pipeline.Slot{Status: "Upcoming"}},
	}

	buf, err := LeadsWorkbook("Kayapalat Leads", leads, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("LeadsWorkbook() error = %v", err)
	}
	f, err := excelize.OpenReader(buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if idx, _ := f.GetSheetIndex("Sheet1"); idx != -1 {
		t.Error("default sheet should be removed")
	}

	raw := excelize.Options{RawCellValue: true}
	tests := []struct {
		sheet, cell, want string
	}{
		{LeadsSheet, "A1", "Kayapalat Leads"},
		{LeadsSheet, "A2", "Generated: 2024-03-10 09:00:00"},
		{LeadsSheet, "A4", "Lead ID"},
		{LeadsSheet, "A5", "LD00001"},
		{LeadsSheet, "G5", "Booked"},
		{LeadsSheet, "Q5", "BK-1"},
		{LeadsSheet, "S5", "500000"},
		{LeadsSheet, "T5", "2"},
		{LeadsSheet, "U5", "10000"},
		{LeadsSheet, "G6", "Cold Calling"},
		{LeadsSheet, "U6", ""},
		{SummarySheet, "A2", "Cold Calling"},
		{SummarySheet, "B2", "1"},
		{SummarySheet, "B5", "1"},
		{SummarySheet, "B6", "2"},
		{SummarySheet, "B8", "500000"},
		{SummarySheet, "B9", "10000"},
	}
	for _, tt := range tests {
		got, err := f.GetCellValue(tt.sheet, tt.cell, raw)
		if err != nil {
			t.Fatalf("GetCellValue(%s!%s) error = %v", tt.sheet, tt.cell, err)
		}
		if got != tt.want {
			t.Errorf("%s!%s = %q, want %q", tt.sheet, tt.cell, got, tt.want)
		}
	}
}

func TestLeadsWorkbookEmpty(t *testing.T) {
	buf, err := LeadsWorkbook("Empty", nil, time.Now())
	if err != nil {
		t.Fatalf("LeadsWorkbook() error = %v", err)
	}
	if buf.Len() == 0 {
		t.Error("workbook should not be empty")
	}
}
