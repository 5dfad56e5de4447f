package layout

import (
	"fmt"
	"sort"

	"github.com/jakechorley/mesctl/pkg/core/model"
)

// Site identifiers
const (
	SiteMain     = "main"
	SiteJinwoori = "jinwoori"
)

var registry = map[string]model.SlotLayout{}

func init() {
	register(model.SlotLayout{
		Site:     SiteMain,
		Building: "A",
		Name:     "A동",
		Lines:    6,
		Codes:    lineCodes([]string{"A", "B", "C", "D", "E", "F"}, 10),
	})
	register(model.SlotLayout{
		Site:     SiteMain,
		Building: "I",
		Name:     "I동",
		Lines:    1,
		Codes:    sequenceCodes("I", 8),
	})
	register(model.SlotLayout{
		Site:     SiteJinwoori,
		Building: "JIN",
		Name:     "진우리",
		Lines:    7,
		Codes:    sequenceCodes("JIN", 70),
	})
}

func register(l model.SlotLayout) {
	registry[l.Key()] = l
}

// lineCodes builds "<line><n>" codes, one line after another
func lineCodes(lines []string, perLine int) []string {
	codes := make([]string, 0, len(lines)*perLine)
	for _, line := range lines {
		for i := 1; i <= perLine; i++ {
			codes = append(codes, fmt.Sprintf("%s%d", line, i))
		}
	}
	return codes
}

func sequenceCodes(prefix string, count int) []string {
	codes := make([]string, count)
	for i := range codes {
		codes[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return codes
}

// Get returns the layout for a site and building
func Get(site, building string) (model.SlotLayout, error) {
	l, ok := registry[site+"/"+model.NormalizeSlotCode(building)]
	if !ok {
		return model.SlotLayout{}, fmt.Errorf("unknown layout %s/%s", site, building)
	}
	// Hand out a copy so callers cannot mutate the registry
	l.Codes = append([]string(nil), l.Codes...)
	return l, nil
}

// All returns every registered layout ordered by key
func All() []model.SlotLayout {
	keys := make([]string, 0, len(registry))
	for k := range registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	layouts := make([]model.SlotLayout, 0, len(keys))
	for _, k := range keys {
		l := registry[k]
		l.Codes = append([]string(nil), l.Codes...)
		layouts = append(layouts, l)
	}
	return layouts
}

// Rows splits the layout codes into its rendered grid lines
func Rows(l model.SlotLayout) [][]string {
	lines := l.Lines
	if lines <= 0 {
		lines = 1
	}
	perLine := (len(l.Codes) + lines - 1) / lines

	var rows [][]string
	for start := 0; start < len(l.Codes); start += perLine {
		end := start + perLine
		if end > len(l.Codes) {
			end = len(l.Codes)
		}
		rows = append(rows, l.Codes[start:end])
	}
	return rows
}
