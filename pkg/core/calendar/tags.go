package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

var tagPattern = regexp.MustCompile(`^\[([^\]]+)\]\s*(.*)$`)

// Preset tags, in display order
var presetTags = []string{
	"QC",
	"SETTING",
	"출하요청",
	"신규입고",
	"개조",
	"인터페이스",
	"칠러",
	"척",
}

var presetIndex = func() map[string]string {
	m := make(map[string]string, len(presetTags))
	for _, t := range presetTags {
		m[NormalizeTag(t)] = t
	}
	return m
}()

// Selector names for the two non-preset tag buckets
const (
	SelectorNone  = "none"
	SelectorOther = "other"
)

// PresetTags returns the known preset tag labels in display order
func PresetTags() []string {
	return append([]string(nil), presetTags...)
}

// ParseTag splits a note of the form "[TAG] rest" into its tag and rest.
// A note without a leading bracketed tag yields an empty tag and the whole note as rest.
func ParseTag(note string) (tag, rest string) {
	note = strings.TrimSpace(note)
	m := tagPattern.FindStringSubmatch(note)
	if m == nil {
		return "", note
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
}

// NormalizeTag trims a tag, removes internal whitespace and upper-cases it
func NormalizeTag(tag string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, tag))
}

// ClassifyTag resolves a raw tag into a typed Tag
func ClassifyTag(raw string) model.Tag {
	raw = strings.TrimSpace(raw)
	norm := NormalizeTag(raw)
	if norm == "" {
		return model.Tag{Kind: model.TagNone}
	}
	if preset, ok := presetIndex[norm]; ok {
		return model.Tag{Kind: model.TagPreset, Name: preset, Raw: raw}
	}
	return model.Tag{Kind: model.TagOther, Name: norm, Raw: raw}
}

// ParseNote converts the bracketed note convention into a typed Note
func ParseNote(note string) model.Note {
	tag, rest := ParseTag(note)
	return model.Note{Tag: ClassifyTag(tag), Detail: rest}
}

// NewNote builds a Note from a tag and detail, e.g. when composing a new event
func NewNote(tag, detail string) model.Note {
	return model.Note{Tag: ClassifyTag(tag), Detail: strings.TrimSpace(detail)}
}

// Selector picks events by tag. Kind TagOther with an empty Name selects every non-preset tag.
type Selector struct {
	Kind model.TagKind
	Name string
}

// ParseSelector parses a user-supplied filter: "none", "other", a preset tag or a custom tag
func ParseSelector(s string) (Selector, error) {
	norm := NormalizeTag(s)
	switch norm {
	case "":
		return Selector{}, fmt.Errorf("empty tag selector")
	case strings.ToUpper(SelectorNone):
		return Selector{Kind: model.TagNone}, nil
	case strings.ToUpper(SelectorOther):
		return Selector{Kind: model.TagOther}, nil
	}
	tag := ClassifyTag(s)
	return Selector{Kind: tag.Kind, Name: tag.Name}, nil
}

// Matches reports whether the tag falls under the selector
func (s Selector) Matches(tag model.Tag) bool {
	if tag.Kind != s.Kind {
		return false
	}
	if s.Kind == model.TagNone {
		return true
	}
	return s.Name == "" || s.Name == tag.Name
}

func (s Selector) String() string {
	switch {
	case s.Kind == model.TagNone:
		return SelectorNone
	case s.Kind == model.TagOther && s.Name == "":
		return SelectorOther
	default:
		return s.Name
	}
}

// Filter returns the events whose note tag matches any of the selectors, preserving order.
// No selectors means no filtering.
func Filter(events []model.CalEvent, selectors ...Selector) []model.CalEvent {
	if len(selectors) == 0 {
		return events
	}
	var out []model.CalEvent
	for _, ev := range events {
		tag := ParseNote(ev.Note).Tag
		for _, s := range selectors {
			if s.Matches(tag) {
				out = append(out, ev)
				break
			}
		}
	}
	return out
}

// CountByTag tallies events per tag bucket; preset tags by name plus "other" and "none"
func CountByTag(events []model.CalEvent) map[string]int {
	counts := make(map[string]int)
	for _, ev := range events {
		tag := ParseNote(ev.Note).Tag
		switch tag.Kind {
		case model.TagPreset:
			counts[tag.Name]++
		case model.TagOther:
			counts[SelectorOther]++
		default:
			counts[SelectorNone]++
		}
	}
	return counts
}
