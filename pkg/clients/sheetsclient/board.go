package sheetsclient

import (
	"fmt"
	"strconv"
	"time"

	"github.com/jakechorley/mesctl/pkg/core/reconciler"
)

// Column titles of a published board. Comment is owned by sheet users and kept across publishes.
const (
	ColumnSlot     = "Slot"
	ColumnMachine  = "Machine"
	ColumnProgress = "Progress"
	ColumnState    = "State"
	ColumnShipping = "Shipping date"
	ColumnManager  = "Manager"
	ColumnCustomer = "Customer"
	ColumnComment  = "Comment"
)

// headerRow is the 0-based row index of the header; row 1 holds the title and row 2 is a gap
const headerRow = 2

var boardHeader = []interface{}{
	ColumnSlot, ColumnMachine, ColumnProgress, ColumnState,
	ColumnShipping, ColumnManager, ColumnCustomer, ColumnComment,
}

// PublishedBoard is the sheet rendering of one reconciled board
type PublishedBoard struct {
	Title string
	Codes []string        // Slot code per row, layout order
	Rows  [][]interface{} // Without the Comment column
}

// BuildPublishedBoard flattens a board into one row per layout slot
func BuildPublishedBoard(board *reconciler.Board, fetchedAt time.Time) *PublishedBoard {
	pb := &PublishedBoard{
		Title: fmt.Sprintf("%s (%s)", board.Layout.Name, fetchedAt.Format("2006-01-02 15:04")),
	}
	for _, tile := range board.Tiles {
		row := []interface{}{tile.Code, "", "", string(reconciler.ToneEmpty), "", "", ""}
		if tile.Occupied {
			row = []interface{}{
				tile.Code,
				tile.Row.MachineID,
				strconv.Itoa(tile.Row.Progress) + "%",
				string(tile.Tone()),
				tile.Row.ShippingDate,
				tile.Row.Manager,
				tile.Row.Customer,
			}
		}
		pb.Codes = append(pb.Codes, tile.Code)
		pb.Rows = append(pb.Rows, row)
	}
	return pb
}

// PublishBoard writes the board to the named tab, creating it if needed.
// Comments entered against a slot in an existing tab are carried over.
func (c *Client) PublishBoard(spreadsheetID, tab string, pb *PublishedBoard) error {
	exists, err := c.HasSheet(spreadsheetID, tab)
	if err != nil {
		return err
	}

	comments := map[string]string{}
	if exists {
		existing, err := c.GetValues(spreadsheetID, fmt.Sprintf("%s!A1:ZZ", tab))
		if err != nil {
			return fmt.Errorf("failed to read existing tab data: %w", err)
		}
		comments = collectComments(existing)

		if err := c.ClearValues(spreadsheetID, fmt.Sprintf("%s!A1:ZZ", tab)); err != nil {
			return err
		}
	} else {
		if _, err := c.CreateSheet(spreadsheetID, tab); err != nil {
			return fmt.Errorf("failed to create tab: %w", err)
		}
	}

	if err := c.UpdateValues(spreadsheetID, fmt.Sprintf("%s!A1", tab), boardValues(pb, comments)); err != nil {
		return fmt.Errorf("failed to write board: %w", err)
	}
	return nil
}

// boardValues lays out title, gap, header and slot rows
func boardValues(pb *PublishedBoard, comments map[string]string) [][]interface{} {
	values := [][]interface{}{
		{pb.Title},
		{},
		boardHeader,
	}
	for i, row := range pb.Rows {
		out := append(append([]interface{}(nil), row...), comments[pb.Codes[i]])
		values = append(values, out)
	}
	return values
}

// collectComments maps slot code to the Comment cell of a previously published tab
func collectComments(existing [][]interface{}) map[string]string {
	comments := map[string]string{}
	if len(existing) <= headerRow {
		return comments
	}

	header := existing[headerRow]
	slotCol := findColumnIndex(header, ColumnSlot)
	commentCol := findColumnIndex(header, ColumnComment)
	if slotCol == -1 || commentCol == -1 {
		return comments
	}

	for _, row := range existing[headerRow+1:] {
		code := cellString(row, slotCol)
		comment := cellString(row, commentCol)
		if code != "" && comment != "" {
			comments[code] = comment
		}
	}
	return comments
}

// findColumnIndex finds the index of a column by name in the header row
func findColumnIndex(header []interface{}, columnName string) int {
	for i, cell := range header {
		if str, ok := cell.(string); ok && str == columnName {
			return i
		}
	}
	return -1
}

func cellString(row []interface{}, col int) string {
	if col >= len(row) {
		return ""
	}
	if s, ok := row[col].(string); ok {
		return s
	}
	return fmt.Sprint(row[col])
}
