// Package console implements the query console: the per-open session state
// machine, the controller that drives it and the projection of results into
// a renderable grid.
package console

import (
	"context"
	"errors"

	"github.com/joacominatel/dataconsole/internal/app"
	"github.com/joacominatel/dataconsole/internal/dataset"
)

const (
	// DefaultQuery is the editor text every time the console opens.
	DefaultQuery = "select * from DATASET;"

	// AlterTemplate is the column type change template offered by the editor.
	AlterTemplate = "ALTER TABLE DATASET ALTER {column name} TYPE {data type};"
)

// Phase is the request lifecycle state of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSettled:
		return "settled"
	default:
		return "unknown"
	}
}

// QueryResult is the last settled outcome of a request. It is never mutated;
// each settle replaces it.
type QueryResult struct {
	Rows    []dataset.Record
	Types   []string
	IsError bool
	Message string
}

// Columns returns the key set of the first row.
func (r *QueryResult) Columns() []string {
	if r == nil || len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[0].Keys()
}

// TypeAt returns the type tag of column i, or "" when the engine sent fewer
// tags than columns.
func (r *QueryResult) TypeAt(i int) string {
	if r == nil || i < 0 || i >= len(r.Types) {
		return ""
	}
	return r.Types[i]
}

// SettledMsg carries the outcome of one request back to the controller.
type SettledMsg struct {
	Seq     uint64
	Op      string
	Query   string
	Payload *dataset.Payload
	Err     error
}

// Session is the state of one open console. It is discarded on close.
type Session struct {
	queryText string
	phase     Phase
	result    *QueryResult
	latest    uint64
	showHelp  bool
}

// NewSession returns an idle session holding the default query.
func NewSession() *Session {
	return &Session{queryText: DefaultQuery}
}

// QueryText returns the editor text.
func (s *Session) QueryText() string { return s.queryText }

// SetQueryText replaces the editor text without issuing a request.
func (s *Session) SetQueryText(text string) { s.queryText = text }

// Phase returns the current phase.
func (s *Session) Phase() Phase { return s.phase }

// Result returns the last settled result, or nil before the first settle.
func (s *Session) Result() *QueryResult { return s.result }

// ShowHelp reports whether the help overlay is open.
func (s *Session) ShowHelp() bool { return s.showHelp }

// Latest returns the sequence number of the newest request issued.
func (s *Session) Latest() uint64 { return s.latest }

// begin enters Loading for request seq. The previous result stays readable.
func (s *Session) begin(seq uint64) {
	s.latest = seq
	s.phase = PhaseLoading
}

// settle applies a response. Responses other than the newest issued are
// dropped and settle reports false.
func (s *Session) settle(msg SettledMsg) bool {
	if msg.Seq != s.latest || s.phase != PhaseLoading {
		return false
	}

	var prev QueryResult
	if s.result != nil {
		prev = *s.result
	}

	// Errors keep the previous rows underneath the message.
	next := QueryResult{
		Rows:    prev.Rows,
		Types:   prev.Types,
		IsError: true,
	}

	var serverErr *app.ErrServer
	switch {
	case errors.As(msg.Err, &serverErr):
		next.Message = serverErr.Error()
	case msg.Err != nil:
		next.Message = describe(msg.Err)
	case msg.Payload == nil:
		next.Message = "The query engine returned no response."
	default:
		next = QueryResult{
			Rows:    msg.Payload.Rows,
			Types:   msg.Payload.Types,
			Message: msg.Payload.Message,
		}
	}

	s.result = &next
	s.phase = PhaseSettled
	if msg.Op == app.OpReset {
		s.queryText = DefaultQuery
	}
	return true
}

func describe(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "The query engine did not respond in time."
	}
	var decodeErr *dataset.DecodeError
	if errors.As(err, &decodeErr) {
		return "The query engine sent an unreadable response: " + decodeErr.Error()
	}
	return "Could not reach the query engine: " + err.Error()
}

// Display says which parts of the console are visible.
type Display struct {
	Loading  bool
	Table    bool
	Message  bool
	RowCount int
	// ShowCount is set once a result exists and no request is in flight.
	ShowCount bool
}

// DisplayFor derives what to render for a phase and result. While loading
// only the indicator is shown. An error shows its message with the table
// hidden; a successful result with rows shows the table.
func DisplayFor(phase Phase, r *QueryResult) Display {
	if phase == PhaseLoading {
		return Display{Loading: true}
	}
	if r == nil {
		return Display{}
	}

	d := Display{ShowCount: true, RowCount: len(r.Rows)}
	switch {
	case r.IsError:
		d.Message = true
	case len(r.Rows) > 0:
		d.Table = true
	}
	return d
}
