// Package tui is the operator display and keyboard of the check-in terminal,
// drawn with tcell. Keystrokes feed the discrete input channel; function keys
// drive the terminal commands.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"

	service "github.com/okian/turnstile/internal/app"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/internal/domain/presentation"
	"github.com/okian/turnstile/pkg/logger"
)

// Commands are the terminal operations bound to keys.
type Commands interface {
	ToggleMode(ctx context.Context) error
	Dismiss(ctx context.Context) error
	Manual(ctx context.Context, ticket string) error
	NextDevice(ctx context.Context) error
	Export(ctx context.Context) (string, error)
}

// Keyboard is the discrete input surface the UI types into.
type Keyboard interface {
	Type(r rune)
	Backspace()
	Enter()
	Blur()
	Refocus()
	Staged() string
	Focused() bool
}

// UI implements service.Renderer on a tcell screen.
type UI struct {
	screen tcell.Screen
	cmds   Commands
	keys   Keyboard
	title  string
	now    func() time.Time

	mu      sync.Mutex
	last    service.Screen
	prompt  []rune
	asking  bool
	status  string
	stopped bool

	logger logger.Logger
}

// New wraps an initialized screen.
func New(screen tcell.Screen, cmds Commands, keys Keyboard, opts ...Option) *UI {
	u := &UI{
		screen: screen,
		cmds:   cmds,
		keys:   keys,
		title:  "turnstile",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.logger == nil {
		u.logger = logger.Get().Named("tui")
	}
	return u
}

// Render stores the latest engine screen and redraws.
func (u *UI) Render(s service.Screen) { //nolint:gocritic // hugeParam: Screen is a value snapshot
	u.mu.Lock()
	defer u.mu.Unlock()
	u.last = s
	u.drawLocked()
}

// Refresh redraws with the last screen, e.g. after the staged input changed.
func (u *UI) Refresh() {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.drawLocked()
}

// Run handles keys until the operator quits or ctx is canceled. It does not
// finalize the screen.
func (u *UI) Run(ctx context.Context) error {
	if u.screen == nil {
		return ErrScreen
	}
	u.mu.Lock()
	u.stopped = false
	u.mu.Unlock()
	u.screen.EnableFocus()
	stop := context.AfterFunc(ctx, func() {
		_ = u.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()
	defer func() {
		u.mu.Lock()
		u.stopped = true
		u.mu.Unlock()
	}()

	u.Refresh()
	for {
		ev := u.screen.PollEvent()
		if ev == nil || ctx.Err() != nil {
			return nil
		}
		switch e := ev.(type) {
		case *tcell.EventResize:
			u.screen.Sync()
			u.Refresh()
		case *tcell.EventFocus:
			if e.Focused {
				u.keys.Refocus()
			} else {
				u.keys.Blur()
			}
		case *tcell.EventKey:
			if u.handleKey(ctx, e) {
				return nil
			}
		}
	}
}

// handleKey reports whether the operator asked to quit.
func (u *UI) handleKey(ctx context.Context, e *tcell.EventKey) bool {
	switch e.Key() {
	case tcell.KeyCtrlC, tcell.KeyF10:
		return true
	}

	u.mu.Lock()
	asking := u.asking
	u.mu.Unlock()
	if asking {
		u.promptKey(ctx, e)
		return false
	}

	switch e.Key() {
	case tcell.KeyTab, tcell.KeyF2:
		u.report(u.cmds.ToggleMode(ctx))
	case tcell.KeyEscape:
		if err := u.cmds.Dismiss(ctx); !errors.Is(err, service.ErrNothingToDismiss) {
			u.report(err)
		}
	case tcell.KeyF4:
		u.openPrompt()
	case tcell.KeyF5:
		u.report(u.cmds.NextDevice(ctx))
	case tcell.KeyCtrlE:
		go func() {
			if _, err := u.cmds.Export(ctx); err != nil {
				u.logger.Warn(ctx, "export failed", logger.Error(err))
			}
		}()
	case tcell.KeyEnter:
		u.keys.Enter()
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		u.keys.Backspace()
	case tcell.KeyRune:
		u.keys.Type(e.Rune())
	}
	return false
}

func (u *UI) promptKey(ctx context.Context, e *tcell.EventKey) {
	switch e.Key() {
	case tcell.KeyEscape:
		u.closePrompt()
	case tcell.KeyEnter:
		u.mu.Lock()
		ticket := string(u.prompt)
		u.mu.Unlock()
		u.closePrompt()
		u.report(u.cmds.Manual(ctx, ticket))
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		u.mu.Lock()
		if n := len(u.prompt); n > 0 {
			u.prompt = u.prompt[:n-1]
		}
		u.drawLocked()
		u.mu.Unlock()
	case tcell.KeyRune:
		u.mu.Lock()
		u.prompt = append(u.prompt, e.Rune())
		u.drawLocked()
		u.mu.Unlock()
	}
}

func (u *UI) openPrompt() {
	u.mu.Lock()
	defer u.mu.Unlock()
	if !u.last.ManualEnabled {
		u.status = "Manual check is available only while idle"
		u.drawLocked()
		return
	}
	u.asking = true
	u.prompt = u.prompt[:0]
	u.status = ""
	u.drawLocked()
}

func (u *UI) closePrompt() {
	u.mu.Lock()
	u.asking = false
	u.prompt = u.prompt[:0]
	u.drawLocked()
	u.mu.Unlock()
	u.keys.Refocus()
}

// report shows a command error in the status line, or clears it.
func (u *UI) report(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.status = ""
	if err != nil {
		u.status = err.Error()
	}
	u.drawLocked()
}

// Prompting reports whether the manual ticket prompt is open.
func (u *UI) Prompting() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.asking
}

var (
	styleNormal = tcell.StyleDefault
	styleHeader = tcell.StyleDefault.Reverse(true)
	styleDim    = tcell.StyleDefault.Dim(true)
	styleNotice = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleError  = tcell.StyleDefault.Foreground(tcell.ColorRed)
	toneStyles  = map[presentation.Tone]tcell.Style{ //nolint:gochecknoglobals // fixed palette
		presentation.TonePositive:  tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorGreen),
		presentation.ToneDuplicate: tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow),
		presentation.ToneNotFound:  tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorRed),
		presentation.ToneFormat:    tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkMagenta),
		presentation.ToneFailure:   tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorDarkRed),
	}
)

const helpLine = " Tab mode  Esc dismiss  F4 manual  F5 camera  ^E export  F10 quit "

func (u *UI) drawLocked() {
	if u.screen == nil || u.stopped {
		return
	}
	s := u.last
	now := u.now()
	u.screen.Clear()
	w, h := u.screen.Size()

	u.fillRow(0, styleHeader)
	u.put(0, 0, styleHeader, " "+u.title+"  "+modeLabel(s)+fmt.Sprintf("  present: %d ", s.PresentCount))

	row := 2
	if s.Mode == model.ModeDiscrete {
		cursor := " "
		if u.keys.Focused() {
			cursor = "_"
		}
		u.put(0, row, styleNormal, "Scan: "+u.keys.Staged()+cursor)
		row += 2
	}

	switch s.State {
	case model.StateAwaitingResult:
		u.put(0, row, styleNormal, "Checking...")
		row += 2
	case model.StateIdle:
		u.put(0, row, styleDim, "Ready to scan")
		row += 2
	}

	if s.Panel != nil {
		style := toneStyles[s.Panel.Tone]
		lines := s.Panel.Lines(now)
		for i, line := range lines {
			st := styleNormal
			if i == 0 {
				st = style
				u.fillRow(row, st)
			}
			u.put(1, row, st, line)
			row++
		}
		u.put(1, row, styleDim, "Esc to dismiss")
		row += 2
	}
	if s.Pending {
		u.put(0, row, styleDim, "Next scan queued")
		row += 2
	}

	if s.Notice != "" {
		u.put(0, row, styleNotice, s.Notice)
		row += 2
	}

	if len(s.Recent) > 0 && row < h-2 {
		u.put(0, row, styleDim, "Recent check-ins")
		row++
		for _, c := range s.Recent {
			if row >= h-2 {
				break
			}
			line := fmt.Sprintf("  %-18s %-24s %s", c.TicketNumber, c.AttendeeName, humanize.RelTime(c.ScanTime, now, "ago", "from now"))
			u.put(0, row, styleNormal, line)
			row++
		}
	}

	if u.asking && h > 2 {
		u.fillRow(h-2, styleHeader)
		u.put(0, h-2, styleHeader, " Ticket number: "+string(u.prompt)+"_")
	} else if u.status != "" && h > 2 {
		u.put(0, h-2, styleError, u.status)
	}
	if h > 0 {
		u.fillRow(h-1, styleHeader)
		u.put(0, h-1, styleHeader, truncate(helpLine, w))
	}
	u.screen.Show()
}

func modeLabel(s service.Screen) string { //nolint:gocritic // hugeParam: Screen is a value snapshot
	label := "mode: " + strings.ToUpper(s.Mode.String())
	if s.Device != "" {
		label += " (" + s.Device + ")"
	}
	if !s.Live {
		label += " [offline]"
	}
	return label
}

func (u *UI) put(x, y int, style tcell.Style, str string) {
	w, h := u.screen.Size()
	if y < 0 || y >= h {
		return
	}
	for _, r := range str {
		if x >= w {
			return
		}
		u.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (u *UI) fillRow(y int, style tcell.Style) {
	w, _ := u.screen.Size()
	for x := 0; x < w; x++ {
		u.screen.SetContent(x, y, ' ', nil, style)
	}
}

func truncate(s string, w int) string {
	r := []rune(s)
	if len(r) > w {
		return string(r[:w])
	}
	return s
}
