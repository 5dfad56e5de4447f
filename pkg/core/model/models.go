package model

import "strings"

// DateLayout is the wire format for every calendar date exchanged with the backend
const DateLayout = "2006-01-02"

// SlotRow represents one physical equipment bay as returned by the backend
type SlotRow struct {
	SlotCode     string `json:"slot_code" validate:"required"`
	MachineID    string `json:"machine_id,omitempty"` // Empty string if the slot is empty
	Progress     int    `json:"progress" validate:"min=0,max=100"`
	ShippingDate string `json:"shipping_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Manager      string `json:"manager,omitempty"`
	Customer     string `json:"customer,omitempty"`
	Note         string `json:"note,omitempty"`
}

// Occupied reports whether a machine currently resides in the slot
func (r SlotRow) Occupied() bool {
	return strings.TrimSpace(r.MachineID) != ""
}

// NormalizeSlotCode upper-cases and trims a slot code
func NormalizeSlotCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// SlotLayout is the fixed universe of slot codes for one building or site
type SlotLayout struct {
	Site     string
	Building string
	Name     string   // Display name, e.g. "A동"
	Lines    int      // Number of rendered rows in the grid
	Codes    []string // Ordered, uppercase
}

// Key returns the "site/building" identifier used by the layout registry
func (l SlotLayout) Key() string {
	return l.Site + "/" + l.Building
}

// Contains reports whether the normalized code belongs to the layout
func (l SlotLayout) Contains(code string) bool {
	code = NormalizeSlotCode(code)
	for _, c := range l.Codes {
		if c == code {
			return true
		}
	}
	return false
}

// CalEvent represents a scheduled occurrence tied to a machine
type CalEvent struct {
	ID        int64  `json:"id,omitempty"`
	MachineNo string `json:"machine_no,omitempty"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Owner     string `json:"owner,omitempty"`
	Note      string `json:"note,omitempty"`
}

// EffectiveEnd returns EndDate, or StartDate for single-day events
func (e CalEvent) EffectiveEnd() string {
	if e.EndDate == "" {
		return e.StartDate
	}
	return e.EndDate
}

// EventPatch carries the fields of a partial event update. Nil fields are left untouched.
type EventPatch struct {
	MachineNo *string `json:"machine_no,omitempty"`
	StartDate *string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate   *string `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Owner     *string `json:"owner,omitempty"`
	Note      *string `json:"note,omitempty"`
}

// TagKind classifies the tag carried by an event note
type TagKind int

const (
	TagNone TagKind = iota
	TagPreset
	TagOther
)

func (k TagKind) String() string {
	switch k {
	case TagPreset:
		return "preset"
	case TagOther:
		return "other"
	default:
		return "none"
	}
}

// Tag is the categorical label of a note
type Tag struct {
	Kind TagKind
	Name string // Normalized name; empty for TagNone
	Raw  string // Tag text as written inside the brackets, trimmed
}

// Note is the typed form of the "[TAG] detail" note convention
type Note struct {
	Tag    Tag
	Detail string
}

// String encodes the note back into its bracketed wire form
func (n Note) String() string {
	if n.Tag.Kind == TagNone {
		return n.Detail
	}
	label := n.Tag.Raw
	if label == "" {
		label = n.Tag.Name
	}
	if n.Detail == "" {
		return "[" + label + "]"
	}
	return "[" + label + "] " + n.Detail
}

// Session is the cross-command context persisted between invocations
type Session struct {
	ID           string `json:"id"`
	Token        string `json:"token,omitempty"`
	Site         string `json:"site,omitempty"`
	Building     string `json:"building,omitempty"`
	SelectedSlot string `json:"selected_slot,omitempty"`
	Intent       string `json:"intent,omitempty"` // Pending hand-off action, e.g. "move:A3"
	UpdatedAt    string `json:"updated_at,omitempty"`
}
