package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/dataconsole/internal/config"
	"github.com/joacominatel/dataconsole/internal/console"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	ids []string
}

func (f *fakeEngine) Query(_ context.Context, id, _ string) (*dataset.Payload, error) {
	f.ids = append(f.ids, id)
	return &dataset.Payload{
		Rows: []dataset.Record{dataset.NewRecord(
			[]string{"n", "source"},
			[]dataset.Value{dataset.Number("1"), dataset.String(id)},
		)},
		Types: []string{"BIGINT", "VARCHAR"},
	}, nil
}

func (f *fakeEngine) Reset(_ context.Context, id string) (*dataset.Payload, error) {
	return f.Query(context.Background(), id, "")
}

func testConfig(t *testing.T, datasets ...config.Dataset) *config.Config {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	cfg.Server.Timeout = time.Second
	cfg.Datasets = datasets
	return cfg
}

func key(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func settle(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, c := range batch {
			m = settle(t, m, c)
		}
		return m
	}
	if s, ok := msg.(console.SettledMsg); ok {
		m, _ = update(m, s)
	}
	return m
}

func TestNewModel_Modes(t *testing.T) {
	eng := &fakeEngine{}

	m := NewModel(eng, testConfig(t), Options{})
	assert.Equal(t, ModeEnterDataset, m.Mode())

	m = NewModel(eng, testConfig(t, config.Dataset{Name: "taxi", ID: "datamart.taxi"}), Options{})
	assert.Equal(t, ModeSelectDataset, m.Mode())

	m = NewModel(eng, testConfig(t), Options{DatasetID: "datamart.taxi"})
	assert.Equal(t, ModeDataset, m.Mode())
	assert.Equal(t, "datamart.taxi", m.DatasetID())
	assert.False(t, m.Console().IsOpen())
}

func TestSelectDataset_ThenRunSQL(t *testing.T) {
	eng := &fakeEngine{}
	cfg := testConfig(t,
		config.Dataset{Name: "taxi", ID: "datamart.taxi"},
		config.Dataset{Name: "bikes", ID: "datamart.bikes"},
	)
	m := NewModel(eng, cfg, Options{})
	m, _ = update(m, tea.WindowSizeMsg{Width: 160, Height: 48})

	m, _ = update(m, key(tea.KeyDown))
	m, _ = update(m, key(tea.KeyEnter))
	require.Equal(t, ModeDataset, m.Mode())
	assert.Equal(t, "datamart.bikes", m.DatasetID())
	assert.Contains(t, m.View(), "Run SQL")
	assert.Empty(t, eng.ids)

	m, cmd := update(m, key(tea.KeyEnter))
	require.True(t, m.Console().IsOpen())
	m = settle(t, m, cmd)

	assert.Equal(t, []string{"datamart.bikes"}, eng.ids)
	assert.Contains(t, m.View(), "SQL Console")

	m, _ = update(m, key(tea.KeyEsc))
	assert.False(t, m.Console().IsOpen())
	assert.Equal(t, ModeDataset, m.Mode())
}

func TestSwitchDataset_DropsResponseFromPreviousDataset(t *testing.T) {
	eng := &fakeEngine{}
	cfg := testConfig(t,
		config.Dataset{Name: "taxi", ID: "datamart.taxi"},
		config.Dataset{Name: "bikes", ID: "datamart.bikes"},
	)
	m := NewModel(eng, cfg, Options{})
	m, _ = update(m, tea.WindowSizeMsg{Width: 160, Height: 48})

	m, _ = update(m, key(tea.KeyEnter))
	require.Equal(t, "datamart.taxi", m.DatasetID())
	m, taxiCmd := update(m, key(tea.KeyEnter))
	require.True(t, m.Console().IsOpen())

	m, _ = update(m, key(tea.KeyEsc))
	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("b")})
	require.Equal(t, ModeSelectDataset, m.Mode())
	m, _ = update(m, key(tea.KeyDown))
	m, _ = update(m, key(tea.KeyEnter))
	require.Equal(t, "datamart.bikes", m.DatasetID())
	m, bikesCmd := update(m, key(tea.KeyEnter))

	m = settle(t, m, taxiCmd)
	session := m.Console().Controller().Session()
	assert.Equal(t, console.PhaseLoading, session.Phase())
	assert.Nil(t, session.Result())

	m = settle(t, m, bikesCmd)
	session = m.Console().Controller().Session()
	require.Equal(t, console.PhaseSettled, session.Phase())
	require.Len(t, session.Result().Rows, 1)
	source, _ := session.Result().Rows[0].Get("source")
	assert.Equal(t, "datamart.bikes", source.Text())
}

func TestEnterDataset_SavesToConfig(t *testing.T) {
	cfg := testConfig(t)
	m := NewModel(&fakeEngine{}, cfg, Options{})

	m, _ = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("datamart.weather")})
	m, cmd := update(m, key(tea.KeyEnter))
	require.Equal(t, ModeDataset, m.Mode())
	require.NotNil(t, cmd)

	assert.True(t, cfg.HasDataset("datamart.weather"))
	assert.Equal(t, datasetSavedMsg{}, cmd())

	reloaded, err := config.Load(cfg.Path(), nil)
	require.NoError(t, err)
	assert.True(t, reloaded.HasDataset("datamart.weather"))
}

func TestCtrlCQuits(t *testing.T) {
	m := NewModel(&fakeEngine{}, testConfig(t), Options{DatasetID: "x"})
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(m, key(tea.KeyEnter))

	_, cmd := update(m, key(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
