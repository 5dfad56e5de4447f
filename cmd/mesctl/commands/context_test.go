package commands

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/mesctl/internal/config"
	"github.com/jakechorley/mesctl/pkg/core/model"
	"github.com/jakechorley/mesctl/pkg/session"
)

func newTestApp(t *testing.T, stored *model.Session) *AppContext {
	t.Helper()
	store, err := session.NewFileStore(filepath.Join(t.TempDir(), "session.json"), "test")
	require.NoError(t, err)
	if stored != nil {
		require.NoError(t, store.Set(context.Background(), stored))
	}
	return &AppContext{
		Cfg: &config.Config{
			DefaultSite:      config.DefaultSite,
			DefaultBuilding:  config.DefaultBuilding,
			MaxEventSpanDays: config.DefaultMaxEventSpanDays,
			WeekStart:        "monday",
		},
		Store:  store,
		Logger: zap.NewNop(),
		Ctx:    context.Background(),
		Out:    &bytes.Buffer{},
	}
}

func TestBoardQuery(t *testing.T) {
	tests := []struct {
		name           string
		stored         *model.Session
		site, building string
		wantSite       string
		wantBuilding   string
		wantErr        bool
	}{
		{
			name:         "config defaults",
			wantSite:     "main",
			wantBuilding: "A",
		},
		{
			name:         "session overrides config",
			stored:       &model.Session{Site: "jinwoori", Building: "JIN"},
			wantSite:     "jinwoori",
			wantBuilding: "JIN",
		},
		{
			name:         "flags override session",
			stored:       &model.Session{Site: "jinwoori", Building: "JIN"},
			site:         "main",
			building:     "i",
			wantSite:     "main",
			wantBuilding: "I",
		},
		{
			name:         "site flag alone takes the default building of the default site",
			stored:       &model.Session{Site: "jinwoori", Building: "JIN"},
			site:         "main",
			wantSite:     "main",
			wantBuilding: "A",
		},
		{
			name:    "other site without a building",
			site:    "jinwoori",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t, tt.stored)
			q, err := app.boardQuery(tt.site, tt.building, "m-1")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSite, q.Site)
			assert.Equal(t, tt.wantBuilding, q.Building)
			assert.Equal(t, "m-1", q.Search)
		})
	}
}

func TestMonthQuery(t *testing.T) {
	app := newTestApp(t, nil)

	q, err := app.monthQuery("2025-03", []string{"qc", "none"})
	require.NoError(t, err)
	assert.Equal(t, 2025, q.Year)
	assert.Equal(t, time.March, q.Month)
	assert.Equal(t, time.Monday, q.WeekStart)
	assert.Equal(t, config.DefaultMaxEventSpanDays, q.MaxSpanDays)
	require.Len(t, q.Tags, 2)
	assert.Equal(t, "QC", q.Tags[0].String())
	assert.Equal(t, model.TagNone, q.Tags[1].Kind)

	_, err = app.monthQuery("2025-13", nil)
	assert.Error(t, err)

	_, err = app.monthQuery("", []string{"  "})
	assert.Error(t, err)
}

func TestSlotArg(t *testing.T) {
	app := newTestApp(t, nil)

	code, err := app.slotArg([]string{" a3 "})
	require.NoError(t, err)
	assert.Equal(t, "A3", code)

	_, err = app.slotArg(nil)
	assert.Error(t, err)

	app = newTestApp(t, &model.Session{SelectedSlot: "B7"})
	code, err = app.slotArg(nil)
	require.NoError(t, err)
	assert.Equal(t, "B7", code)
}

func TestParseCommandLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    []string
		wantErr bool
	}{
		{"simple", "slot show A3", []string{"slot", "show", "A3"}, false},
		{"extra spaces", "  ship   A3  ", []string{"ship", "A3"}, false},
		{"double quotes", `calendar add --detail "final check"`, []string{"calendar", "add", "--detail", "final check"}, false},
		{"single quotes", `slot save --note 'a "quoted" word'`, []string{"slot", "save", "--note", `a "quoted" word`}, false},
		{"empty quoted argument", `slot save --note ""`, []string{"slot", "save", "--note", ""}, false},
		{"unclosed quote", `slot save --note "oops`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCommandLine(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// replRoot builds a small command tree that records what each run saw
func replRoot(seen *[]string) *cobra.Command {
	root := &cobra.Command{Use: "mesctl"}
	root.PersistentFlags().String("env", "", "")

	group := &cobra.Command{Use: "slot"}
	var note string
	var tags []string
	show := &cobra.Command{
		Use:  "show [code]",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, _ := cmd.Flags().GetString("env")
			*seen = append(*seen, strings.Join(append([]string{env, note, strings.Join(tags, "+")}, args...), "|"))
			return nil
		},
	}
	show.Flags().StringVar(&note, "note", "", "")
	show.Flags().StringSliceVar(&tags, "tag", nil, "")
	group.AddCommand(show)
	root.AddCommand(group)
	return root
}

func TestRunInteractive_ResetsFlagsBetweenRuns(t *testing.T) {
	var seen []string
	root := replRoot(&seen)
	require.NoError(t, root.PersistentFlags().Set("env", "prod"))

	require.NoError(t, runInteractive(root, []string{"slot", "show", "--note", "x", "--tag", "QC", "A3"}))
	require.NoError(t, runInteractive(root, []string{"slot", "show"}))

	assert.Equal(t, []string{"prod|x|QC|A3", "prod||"}, seen)
}

func TestRunInteractive_ArgValidation(t *testing.T) {
	var seen []string
	root := replRoot(&seen)

	err := runInteractive(root, []string{"slot", "show", "A1", "A2"})
	assert.Error(t, err)
	assert.Empty(t, seen)
}

func TestInteractiveCmd_Session(t *testing.T) {
	var seen []string
	root := replRoot(&seen)

	out := &bytes.Buffer{}
	app := &AppContext{
		Out: out,
		In:  bufio.NewReader(strings.NewReader("help\nslot show B2\nbogus\nquit\nslot show never\n")),
	}
	root.AddCommand(InteractiveCmd(app))

	repl, _, err := root.Find([]string{"interactive"})
	require.NoError(t, err)
	require.NoError(t, repl.RunE(repl, nil))

	assert.Equal(t, []string{"|||B2"}, seen)
	assert.Contains(t, out.String(), "Available commands")
	assert.Contains(t, out.String(), "Unknown command: bogus")
	assert.Contains(t, out.String(), "Goodbye!")
	assert.NotContains(t, out.String(), "interactive  ")
}

func TestInteractiveCmd_EOF(t *testing.T) {
	root := &cobra.Command{Use: "mesctl"}
	app := &AppContext{Out: &bytes.Buffer{}, In: bufio.NewReader(strings.NewReader(""))}
	root.AddCommand(InteractiveCmd(app))

	repl, _, err := root.Find([]string{"interactive"})
	require.NoError(t, err)
	assert.NoError(t, repl.RunE(repl, nil))
}
