package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInLayoutSizes(t *testing.T) {
	tests := []struct {
		site     string
		building string
		want     int
		first    string
		last     string
	}{
		{SiteMain, "A", 60, "A1", "F10"},
		{SiteMain, "I", 8, "I1", "I8"},
		{SiteJinwoori, "JIN", 70, "JIN1", "JIN70"},
	}

	for _, tt := range tests {
		t.Run(tt.site+"/"+tt.building, func(t *testing.T) {
			l, err := Get(tt.site, tt.building)
			require.NoError(t, err)
			assert.Len(t, l.Codes, tt.want)
			assert.Equal(t, tt.first, l.Codes[0])
			assert.Equal(t, tt.last, l.Codes[len(l.Codes)-1])
		})
	}
}

func TestGet_BuildingIsCaseInsensitive(t *testing.T) {
	l, err := Get(SiteMain, "a")
	require.NoError(t, err)
	assert.Equal(t, "A", l.Building)
}

func TestGet_Unknown(t *testing.T) {
	_, err := Get(SiteMain, "Z")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown layout")
}

func TestGet_ReturnsCopy(t *testing.T) {
	l, err := Get(SiteMain, "I")
	require.NoError(t, err)
	l.Codes[0] = "MUTATED"

	again, err := Get(SiteMain, "I")
	require.NoError(t, err)
	assert.Equal(t, "I1", again.Codes[0])
}

func TestCodesAreUnique(t *testing.T) {
	for _, l := range All() {
		seen := make(map[string]bool)
		for _, code := range l.Codes {
			assert.False(t, seen[code], "duplicate code %s in %s", code, l.Key())
			seen[code] = true
		}
	}
}

func TestRows(t *testing.T) {
	l, err := Get(SiteMain, "A")
	require.NoError(t, err)

	rows := Rows(l)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10"}, rows[0])
	assert.Equal(t, "F10", rows[5][9])
}
