// Package tui renders a live table of a running pool's children: pid, id,
// age, and command line, refreshed on a timer.
package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/Paintersrp/procpool/internal/registry"
)

const tableTitle = "procpool"

// Source is polled on a timer for the current snapshot of live children.
type Source func() []*registry.Child

// UI coordinates the interactive status table backed by tview.
type UI struct {
	app    *tview.Application
	table  *tview.Table
	source Source

	interval time.Duration

	mu sync.Mutex

	cancelMu sync.Mutex
	cancel   context.CancelFunc

	stopOnce sync.Once
	done     chan struct{}
}

// Option configures UI behaviour.
type Option func(*UI)

// WithRefreshInterval overrides the default one-second refresh tick.
func WithRefreshInterval(d time.Duration) Option {
	return func(u *UI) {
		if d > 0 {
			u.interval = d
		}
	}
}

// New constructs a UI that polls source for its table contents.
func New(source Source, opts ...Option) *UI {
	app := tview.NewApplication()
	table := tview.NewTable().SetFixed(1, 0).SetSelectable(true, false)
	table.SetBorder(true).SetTitle(tableTitle)

	ui := &UI{
		app:      app,
		table:    table,
		source:   source,
		interval: time.Second,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ui)
	}

	app.SetRoot(table, true)
	app.SetInputCapture(ui.handleKey)

	ui.mu.Lock()
	ui.refreshLocked()
	ui.mu.Unlock()

	return ui
}

// Done returns a channel that is closed when the UI stops.
func (u *UI) Done() <-chan struct{} {
	return u.done
}

// Run starts the tview application, refreshing the table on a timer until
// Stop is called or ctx is cancelled.
func (u *UI) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	u.cancelMu.Lock()
	u.cancel = cancel
	u.cancelMu.Unlock()

	go func() {
		ticker := time.NewTicker(u.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				u.Stop()
				return
			case <-ticker.C:
				u.app.QueueUpdateDraw(func() {
					u.mu.Lock()
					defer u.mu.Unlock()
					u.refreshLocked()
				})
			}
		}
	}()

	err := u.app.Run()

	u.cancelMu.Lock()
	cancel = u.cancel
	u.cancel = nil
	u.cancelMu.Unlock()
	if cancel != nil {
		cancel()
	}

	return err
}

// Stop terminates the application loop and releases resources.
func (u *UI) Stop() {
	u.stopOnce.Do(func() {
		u.app.Stop()
		close(u.done)
	})
}

func (u *UI) handleKey(event *tcell.EventKey) *tcell.EventKey {
	if event.Key() == tcell.KeyRune && (event.Rune() == 'q' || event.Rune() == 'Q') {
		go u.Stop()
		return nil
	}
	if event.Key() == tcell.KeyCtrlC {
		go u.Stop()
		return nil
	}
	return event
}

func (u *UI) refreshLocked() {
	u.table.Clear()

	headers := []string{"PID", "ID", "AGE", "CMDLINE"}
	for col, header := range headers {
		cell := tview.NewTableCell(header).
			SetSelectable(false).
			SetAttributes(tcell.AttrBold)
		u.table.SetCell(0, col, cell)
	}

	kids := u.source()
	sort.Slice(kids, func(i, j int) bool { return kids[i].Pid < kids[j].Pid })

	now := time.Now()
	for row, c := range kids {
		id := c.ID
		if id == "" {
			id = "-"
		}
		age := c.Age(now).Truncate(time.Second).String()
		cmd := strings.Join(c.Cmdline, " ")
		if len(cmd) > 80 {
			cmd = cmd[:77] + "..."
		}

		values := []string{fmt.Sprintf("%d", c.Pid), id, age, cmd}
		for col, value := range values {
			u.table.SetCell(row+1, col, tview.NewTableCell(value))
		}
	}
}
