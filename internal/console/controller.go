package console

import (
	"context"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joacominatel/dataconsole/internal/app"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/joacominatel/dataconsole/internal/export"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("console")

// DefaultTimeout bounds every request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// requestSeq numbers requests across every controller in the process, so a
// response issued by one controller never matches another's latest request.
var requestSeq atomic.Uint64

// Runner executes console requests against one dataset.
type Runner interface {
	Query(ctx context.Context, sql string) (*dataset.Payload, error)
	Reset(ctx context.Context) (*dataset.Payload, error)
}

// Options configures a Controller.
type Options struct {
	// Exporter receives the rows on Download. Nil disables downloads.
	Exporter export.Exporter
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Controller drives the console: it opens and closes sessions, issues
// requests and reconciles their responses.
//
// Controller is not safe for concurrent use. All methods are called from the
// UI update loop; only the returned commands run elsewhere.
type Controller struct {
	runner   Runner
	exporter export.Exporter
	timeout  time.Duration
	session  *Session
}

// NewController creates a closed console.
func NewController(runner Runner, opts Options) *Controller {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Controller{
		runner:   runner,
		exporter: opts.Exporter,
		timeout:  timeout,
	}
}

// Open starts a fresh session with the default query and immediately runs
// the unfiltered query so results are ready when the console shows.
func (c *Controller) Open() tea.Cmd {
	c.session = NewSession()
	return c.submit(app.OpQuery, "")
}

// Close discards the session. Responses still in flight are ignored.
func (c *Controller) Close() {
	c.session = nil
}

// IsOpen reports whether a session is active.
func (c *Controller) IsOpen() bool {
	return c.session != nil
}

// Session returns the active session, or nil when closed.
func (c *Controller) Session() *Session {
	return c.session
}

// Timeout returns the per-request timeout.
func (c *Controller) Timeout() time.Duration {
	return c.timeout
}

// RunQuery submits text to the engine.
func (c *Controller) RunQuery(text string) tea.Cmd {
	if c.session == nil {
		return nil
	}
	c.session.SetQueryText(text)
	return c.submit(app.OpQuery, text)
}

// ResetDataset restores the dataset. The editor text returns to the default
// query once the reset settles.
func (c *Controller) ResetDataset() tea.Cmd {
	if c.session == nil {
		return nil
	}
	return c.submit(app.OpReset, "")
}

// SetQueryText records an edit of the editor text.
func (c *Controller) SetQueryText(text string) {
	if c.session != nil {
		c.session.SetQueryText(text)
	}
}

// ClearQueryText empties the editor without issuing a request.
func (c *Controller) ClearQueryText() {
	c.SetQueryText("")
}

// PrefillAlterTemplate puts the column type change template in the editor
// without issuing a request.
func (c *Controller) PrefillAlterTemplate() {
	c.SetQueryText(AlterTemplate)
}

// ToggleHelp opens or closes the help overlay.
func (c *Controller) ToggleHelp() {
	if c.session != nil {
		c.session.showHelp = !c.session.showHelp
	}
}

// Download exports the current rows. It is fire and forget: a failure is
// logged and never reaches the session.
func (c *Controller) Download() tea.Cmd {
	if c.session == nil || c.exporter == nil {
		return nil
	}

	var rows []dataset.Record
	if r := c.session.Result(); r != nil {
		rows = r.Rows
	}
	exporter := c.exporter

	return func() tea.Msg {
		if err := exporter.Export(rows); err != nil {
			log.Warningf("download failed: %v", err)
		}
		return nil
	}
}

// Settle applies a response to the active session. It reports whether the
// response was applied; stale responses and responses for a closed session
// are dropped.
func (c *Controller) Settle(msg SettledMsg) bool {
	if c.session == nil {
		log.Debugf("dropping response #%d: console closed", msg.Seq)
		return false
	}
	if !c.session.settle(msg) {
		log.Debugf("dropping stale response #%d (latest #%d)", msg.Seq, c.session.latest)
		return false
	}
	if msg.Err != nil {
		log.Infof("%s #%d settled with error: %v", msg.Op, msg.Seq, msg.Err)
	}
	return true
}

// Display returns what the view should render for the active session.
func (c *Controller) Display() Display {
	if c.session == nil {
		return Display{}
	}
	return DisplayFor(c.session.Phase(), c.session.Result())
}

// Grid returns the renderable grid of the current result.
func (c *Controller) Grid() Grid {
	if c.session == nil {
		return Grid{}
	}
	return BuildGrid(c.session.Result())
}

func (c *Controller) submit(op, text string) tea.Cmd {
	seq := requestSeq.Add(1)
	c.session.begin(seq)

	runner := c.runner
	timeout := c.timeout
	log.Debugf("%s #%d issued: %q", op, seq, text)

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		var (
			p   *dataset.Payload
			err error
		)
		if op == app.OpReset {
			p, err = runner.Reset(ctx)
		} else {
			p, err = runner.Query(ctx, text)
		}
		return SettledMsg{Seq: seq, Op: op, Query: text, Payload: p, Err: err}
	}
}
