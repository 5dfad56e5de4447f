package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/jakechorley/mesctl/pkg/core/calendar"
	"github.com/jakechorley/mesctl/pkg/core/layout"
	"github.com/jakechorley/mesctl/pkg/core/model"
	"github.com/jakechorley/mesctl/pkg/core/reconciler"
)

// BoardHeader is the column order of a board list sheet
var BoardHeader = []string{"Slot", "Machine", "Progress", "State", "Shipping date", "Manager", "Customer", "Note"}

// MonthHeader is the column order of a month sheet
var MonthHeader = []string{"Date", "ID", "Machine", "Tag", "Detail", "Owner", "Start", "End"}

var toneFill = map[reconciler.Tone]string{
	reconciler.ToneEmpty:        "#F2F2F2",
	reconciler.ToneInProgress:   "#FFF2CC",
	reconciler.ToneNearComplete: "#DDEBF7",
	reconciler.ToneReadyToShip:  "#E2EFDA",
}

// Workbook accumulates board and month sheets into one .xlsx file
type Workbook struct {
	f           *excelize.File
	headerStyle int
	toneStyles  map[reconciler.Tone]int
	sheets      int
}

// NewWorkbook creates an empty workbook
func NewWorkbook() (*Workbook, error) {
	f := excelize.NewFile()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9D9D9"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	toneStyles := make(map[reconciler.Tone]int, len(toneFill))
	for tone, color := range toneFill {
		style, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Border: []excelize.Border{
				{Type: "left", Color: "BFBFBF", Style: 1},
				{Type: "top", Color: "BFBFBF", Style: 1},
				{Type: "bottom", Color: "BFBFBF", Style: 1},
				{Type: "right", Color: "BFBFBF", Style: 1},
			},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		})
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to create tone style: %w", err)
		}
		toneStyles[tone] = style
	}

	return &Workbook{f: f, headerStyle: headerStyle, toneStyles: toneStyles}, nil
}

// Close releases the underlying file
func (w *Workbook) Close() error {
	return w.f.Close()
}

// File exposes the underlying excelize file
func (w *Workbook) File() *excelize.File {
	return w.f
}

// newSheet creates a sheet, replacing the default one on first use
func (w *Workbook) newSheet(name string) error {
	if w.sheets == 0 {
		if err := w.f.SetSheetName("Sheet1", name); err != nil {
			return fmt.Errorf("failed to rename sheet: %w", err)
		}
	} else {
		if _, err := w.f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}
	w.sheets++
	return nil
}

func (w *Workbook) writeHeader(sheet string, header []string) error {
	for col, title := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := w.f.SetCellValue(sheet, cell, title); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(header), 1)
	if err := w.f.SetCellStyle(sheet, "A1", last, w.headerStyle); err != nil {
		return fmt.Errorf("failed to set header style: %w", err)
	}
	return nil
}

func (w *Workbook) writeRow(sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

// AddBoard adds two sheets for a board: a colored grid in layout shape and a list of every slot
func (w *Workbook) AddBoard(board *reconciler.Board) error {
	gridSheet := board.Layout.Name
	if err := w.newSheet(gridSheet); err != nil {
		return err
	}

	for r, line := range layout.Rows(board.Layout) {
		for c, code := range line {
			tile, ok := board.Tile(code)
			if !ok {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("failed to convert coordinates: %w", err)
			}
			label := tile.Code
			if tile.Occupied {
				label = fmt.Sprintf("%s\n%s\n%d%%", tile.Code, tile.Row.MachineID, tile.Row.Progress)
			}
			if err := w.f.SetCellValue(gridSheet, cell, label); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
			if err := w.f.SetCellStyle(gridSheet, cell, cell, w.toneStyles[tile.Tone()]); err != nil {
				return fmt.Errorf("failed to style cell %s: %w", cell, err)
			}
		}
		if err := w.f.SetRowHeight(gridSheet, r+1, 48); err != nil {
			return fmt.Errorf("failed to set row height: %w", err)
		}
	}

	listSheet := gridSheet + " 목록"
	if err := w.newSheet(listSheet); err != nil {
		return err
	}
	if err := w.writeHeader(listSheet, BoardHeader); err != nil {
		return err
	}
	for i, tile := range board.Tiles {
		values := []interface{}{tile.Code, "", 0, string(reconciler.ToneEmpty), "", "", "", ""}
		if tile.Occupied {
			values = []interface{}{
				tile.Code, tile.Row.MachineID, tile.Row.Progress, string(tile.Tone()),
				tile.Row.ShippingDate, tile.Row.Manager, tile.Row.Customer, tile.Row.Note,
			}
		}
		if err := w.writeRow(listSheet, i+2, values); err != nil {
			return err
		}
	}
	return w.f.SetColWidth(listSheet, "A", "H", 16)
}

// AddMonth adds a sheet listing every event occurrence in the window, one row per day
func (w *Workbook) AddMonth(title string, window calendar.Window, buckets calendar.Buckets) error {
	if err := w.newSheet(title); err != nil {
		return err
	}
	if err := w.writeHeader(title, MonthHeader); err != nil {
		return err
	}

	row := 2
	for _, day := range window.Days() {
		date := calendar.FormatDate(day)
		for _, ev := range buckets.On(date) {
			if err := w.writeRow(title, row, monthRow(date, ev)); err != nil {
				return err
			}
			row++
		}
	}
	return w.f.SetColWidth(title, "A", "H", 14)
}

func monthRow(date string, ev model.CalEvent) []interface{} {
	note := calendar.ParseNote(ev.Note)
	return []interface{}{
		date, ev.ID, ev.MachineNo, note.Tag.Name, note.Detail, ev.Owner, ev.StartDate, ev.EffectiveEnd(),
	}
}

// WriteTo writes the workbook as .xlsx
func (w *Workbook) WriteTo(out io.Writer) (int64, error) {
	if w.sheets == 0 {
		return 0, fmt.Errorf("workbook has no sheets")
	}
	w.f.SetActiveSheet(0)
	n, err := w.f.WriteTo(out)
	if err != nil {
		return n, fmt.Errorf("failed to write workbook: %w", err)
	}
	return n, nil
}

// SaveAs writes the workbook to path
func (w *Workbook) SaveAs(path string) error {
	if w.sheets == 0 {
		return fmt.Errorf("workbook has no sheets")
	}
	w.f.SetActiveSheet(0)
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}
