package sqlconsole

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/dataconsole/internal/app"
	"github.com/joacominatel/dataconsole/internal/console"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	mu      sync.Mutex
	queries []string
	resets  int
	fail    string
}

func rows(vendors ...string) *dataset.Payload {
	p := &dataset.Payload{Types: []string{"VARCHAR", "BIGINT"}}
	for i, v := range vendors {
		p.Rows = append(p.Rows, dataset.NewRecord(
			[]string{"vendor", "trips"},
			[]dataset.Value{dataset.String(v), dataset.Number(json.Number("1" + string(rune('0'+i))))},
		))
	}
	return p
}

func (f *fakeRunner) Query(_ context.Context, sql string) (*dataset.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, sql)
	if f.fail != "" && sql == f.fail {
		return &dataset.Payload{Error: true, Message: "Binder Error: column not found"},
			&app.ErrServer{Op: app.OpQuery, Message: "Binder Error: column not found"}
	}
	return rows("CMT", "VTS"), nil
}

func (f *fakeRunner) Reset(context.Context) (*dataset.Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	return rows("CMT", "VTS", "DDS"), nil
}

func (f *fakeRunner) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries) + f.resets
}

// drain runs a command and returns the settled responses it produced.
func drain(cmd tea.Cmd) []console.SettledMsg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		var out []console.SettledMsg
		for _, c := range msg {
			out = append(out, drain(c)...)
		}
		return out
	case console.SettledMsg:
		return []console.SettledMsg{msg}
	}
	return nil
}

func apply(m Model, cmd tea.Cmd) Model {
	for _, msg := range drain(cmd) {
		m, _ = m.Update(msg)
	}
	return m
}

func keyPress(m Model, t tea.KeyType) (Model, tea.Cmd) {
	return m.Update(tea.KeyMsg{Type: t})
}

func typeText(m Model, s string) Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func open(t *testing.T, r *fakeRunner) Model {
	t.Helper()
	ctrl := console.NewController(r, console.Options{})
	m := New(ctrl, "datamart.taxi")
	m.SetSize(140, 40)

	m, cmd := m.Open()
	require.True(t, m.IsOpen())
	return apply(m, cmd)
}

func TestOpen_RunsDefaultQuery(t *testing.T) {
	r := &fakeRunner{}
	m := open(t, r)

	assert.Equal(t, []string{""}, r.queries)
	assert.Equal(t, console.DefaultQuery, m.QueryText())
	assert.Equal(t, PaneEditor, m.ActivePane())
	assert.Equal(t, console.PhaseSettled, m.Controller().Session().Phase())
	assert.Contains(t, m.View(), "CMT")
	assert.Contains(t, m.View(), "Total 2 Rows Fetched")
}

func TestRun_SendsEditorText(t *testing.T) {
	r := &fakeRunner{}
	m := open(t, r)

	m, _ = keyPress(m, tea.KeyCtrlK)
	m = typeText(m, "select vendor from DATASET")
	m, cmd := keyPress(m, tea.KeyCtrlE)
	assert.Equal(t, console.PhaseLoading, m.Controller().Session().Phase())

	m = apply(m, cmd)
	assert.Equal(t, []string{"", "select vendor from DATASET"}, r.queries)
	assert.Equal(t, "select vendor from DATASET", m.Controller().Session().QueryText())
	assert.Equal(t, "Query OK, 2 rows fetched", m.StatusMessage())
}

func TestClearAndTemplate_NoRequest(t *testing.T) {
	r := &fakeRunner{}
	m := open(t, r)
	before := r.calls()

	m, cmd := keyPress(m, tea.KeyCtrlK)
	assert.Nil(t, cmd)
	assert.Empty(t, m.QueryText())

	m, cmd = keyPress(m, tea.KeyCtrlT)
	assert.Nil(t, cmd)
	assert.Equal(t, console.AlterTemplate, m.QueryText())

	assert.Equal(t, before, r.calls())
	assert.Equal(t, console.PhaseSettled, m.Controller().Session().Phase())
}

func TestReset_RearmsEditor(t *testing.T) {
	r := &fakeRunner{}
	m := open(t, r)

	m, _ = keyPress(m, tea.KeyCtrlK)
	m = typeText(m, "alter table DATASET drop vendor")
	m, cmd := keyPress(m, tea.KeyCtrlR)
	m = apply(m, cmd)

	assert.Equal(t, 1, r.resets)
	assert.Equal(t, console.DefaultQuery, m.QueryText())
	assert.Equal(t, "Dataset reset", m.StatusMessage())
	assert.Contains(t, m.View(), "DDS")
}

func TestServerError_ShownInline(t *testing.T) {
	r := &fakeRunner{fail: "select nope from DATASET"}
	m := open(t, r)

	m, _ = keyPress(m, tea.KeyCtrlK)
	m = typeText(m, "select nope from DATASET")
	m, cmd := keyPress(m, tea.KeyCtrlE)
	m = apply(m, cmd)

	res := m.Controller().Session().Result()
	require.NotNil(t, res)
	assert.True(t, res.IsError)
	assert.Len(t, res.Rows, 2)

	view := m.View()
	assert.Contains(t, view, "Binder Error")
	assert.NotContains(t, view, "VTS")
}

func TestEsc_ClosesAndDropsLateResponse(t *testing.T) {
	r := &fakeRunner{}
	m := open(t, r)

	m, cmd := keyPress(m, tea.KeyCtrlE)
	m, _ = keyPress(m, tea.KeyEsc)
	assert.False(t, m.IsOpen())
	assert.Empty(t, m.View())

	m = apply(m, cmd)
	assert.False(t, m.IsOpen())
}

func TestHelp_ToggleAndEscClosesHelpFirst(t *testing.T) {
	m := open(t, &fakeRunner{})

	m, _ = keyPress(m, tea.KeyF1)
	assert.True(t, m.Controller().Session().ShowHelp())
	assert.Contains(t, m.View(), "DATASET")
	assert.Contains(t, m.View(), "TIMESTAMP")

	m, _ = keyPress(m, tea.KeyEsc)
	assert.False(t, m.Controller().Session().ShowHelp())
	assert.True(t, m.IsOpen())
}

func TestTab_CyclesPanes(t *testing.T) {
	m := open(t, &fakeRunner{})
	m, _ = keyPress(m, tea.KeyCtrlK)

	m, _ = keyPress(m, tea.KeyTab)
	assert.Equal(t, PaneResults, m.ActivePane())
	m, _ = keyPress(m, tea.KeyTab)
	assert.Equal(t, PaneColumns, m.ActivePane())
	m, _ = keyPress(m, tea.KeyShiftTab)
	assert.Equal(t, PaneResults, m.ActivePane())
}

func TestColumnsPane_GroupByTemplate(t *testing.T) {
	m := open(t, &fakeRunner{})
	m, _ = keyPress(m, tea.KeyCtrlK)
	m, _ = keyPress(m, tea.KeyTab)
	m, _ = keyPress(m, tea.KeyTab)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("g")})
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())

	assert.Equal(t, PaneEditor, m.ActivePane())
	assert.Equal(t, `SELECT "vendor", count(*) FROM DATASET GROUP BY "vendor";`, m.QueryText())
	assert.Equal(t, m.QueryText(), m.Controller().Session().QueryText())
}

func TestReopen_StartsFresh(t *testing.T) {
	r := &fakeRunner{}
	m := open(t, r)
	m, _ = keyPress(m, tea.KeyCtrlK)
	m, _ = keyPress(m, tea.KeyEsc)

	m, cmd := m.Open()
	assert.Equal(t, console.DefaultQuery, m.QueryText())
	m = apply(m, cmd)
	assert.Equal(t, []string{"", ""}, r.queries)
}
