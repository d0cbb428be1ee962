package export

import (
	"fmt"
	"io"
	"time"

	"github.com/FikranSE/bookingapp/internal/domain"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

var statusFill = map[domain.EffectiveStatus]string{
	domain.EffectivePending:   "#FFEB9C",
	domain.EffectiveApproved:  "#C6EFCE",
	domain.EffectiveRejected:  "#FFC7CE",
	domain.EffectiveCancelled: "#D9D9D9",
	domain.EffectiveExpired:   "#F4B084",
}

// Report describes one XLSX export. Bookings must already carry their
// effective status.
type Report struct {
	Kind     domain.ResourceKind
	From     time.Time
	To       time.Time
	Bookings []domain.Booking
}

func (r Report) FileName() string {
	return fmt.Sprintf("%s_bookings_%s_to_%s.xlsx", r.Kind, r.From.Format(domain.DateLayout), r.To.Format(domain.DateLayout))
}

func headers(kind domain.ResourceKind) []string {
	purpose, detail := "Agenda", "Room Type"
	if kind == domain.ResourceTransport {
		purpose, detail = "Destination", "Driver"
	}
	return []string{"ID", "Date", "Start", "End", kind.Label(), detail, "Requested By", "PIC", "Section", purpose, "Notes", "Status"}
}

// Write renders the report as a single-sheet workbook.
func Write(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	cols := headers(r.Kind)
	lastCol, _ := excelize.ColumnNumberToName(len(cols))

	title := fmt.Sprintf("%s bookings: %s - %s", r.Kind.Label(), r.From.Format("02.01.2006"), r.To.Format("02.01.2006"))
	if err := f.SetCellValue(sheetName, "A1", title); err != nil {
		return err
	}
	if err := f.MergeCell(sheetName, "A1", lastCol+"1"); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err == nil {
		_ = f.SetCellStyle(sheetName, "A1", "A1", style)
	}

	for i, h := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	if style, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	}); err == nil {
		_ = f.SetCellStyle(sheetName, "A2", lastCol+"2", style)
	}

	styles := make(map[domain.EffectiveStatus]int, len(statusFill))
	for status, color := range statusFill {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err != nil {
			return fmt.Errorf("create status style: %w", err)
		}
		styles[status] = style
	}

	for i, b := range r.Bookings {
		row := i + 3
		values := []any{
			b.ID,
			b.BookingDate.Format(domain.DateLayout),
			b.StartTime,
			b.EndTime,
			b.ResourceName,
			b.ResourceDetail,
			b.UserEmail,
			b.PIC,
			b.Section,
			purposeOf(b),
			b.Notes,
			string(b.Effective),
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(sheetName, start, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
		if style, ok := styles[b.Effective]; ok {
			cell, _ := excelize.CoordinatesToCellName(len(cols), row)
			_ = f.SetCellStyle(sheetName, cell, cell, style)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 8)
	_ = f.SetColWidth(sheetName, "B", "D", 12)
	_ = f.SetColWidth(sheetName, "E", lastCol, 20)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func purposeOf(b domain.Booking) string {
	if b.Kind == domain.ResourceTransport {
		return b.Destination
	}
	return b.Agenda
}
