package tui

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"go.uber.org/zap"

	"github.com/yapchat/yap/internal/bus"
	"github.com/yapchat/yap/internal/chat"
	"github.com/yapchat/yap/internal/config"
	"github.com/yapchat/yap/internal/protocol"
	"github.com/yapchat/yap/internal/status"
	"github.com/yapchat/yap/internal/tui/model"
	"github.com/yapchat/yap/internal/tui/ui"
	"github.com/yapchat/yap/internal/tui/views"
)

const flashDuration = 5 * time.Second

// App is the main TUI application shell. It renders exclusively from bus
// events and the session's message store; it never mutates the store
// itself.
type App struct {
	app     *tview.Application
	pages   *tview.Pages
	theme   *ui.Theme
	manager *chat.Manager
	bus     *bus.Bus
	logger  *zap.Logger
	cfg     *config.Config
	flash   *model.Flash

	statusBar *views.StatusBar
	login     *views.Login
	thread    *views.Thread
	composer  *views.Composer
	invite    *views.Invite

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	notices []views.Notice
}

// NewApp creates the TUI application.
func NewApp(profile string, cfg *config.Config, mgr *chat.Manager, b *bus.Bus, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()
	flash := &model.Flash{}

	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		theme:     theme,
		manager:   mgr,
		bus:       b,
		logger:    logger,
		cfg:       cfg,
		flash:     flash,
		statusBar: views.NewStatusBar(profile, flash),
		login:     views.NewLogin(theme, cfg.DisplayName, cfg.RoomCode),
		thread:    views.NewThread(theme),
		composer:  views.NewComposer(theme),
		invite:    views.NewInvite(theme),
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupCallbacks()
	a.setupLayout()

	return a
}

func (a *App) setupCallbacks() {
	a.login.SetOnJoin(func(name, room string) {
		go func() {
			ctx, cancel := context.WithTimeout(a.ctx, 20*time.Second)
			defer cancel()
			s, err := a.manager.Join(ctx, name, room)
			if err != nil {
				a.flashErr("Join failed: " + err.Error())
				a.app.QueueUpdateDraw(a.statusBar.Render)
				return
			}
			a.app.QueueUpdateDraw(func() {
				a.mu.Lock()
				a.notices = a.notices[:0]
				a.mu.Unlock()
				a.thread.SetSelf(s.Name())
				a.thread.SetRoom(s.Room())
				a.statusBar.SetRoom(s.Room())
				a.thread.Update(nil, nil)
				a.pages.SwitchToPage("room")
				a.app.SetFocus(a.composer)
			})
		}()
	})

	a.composer.SetOnSubmit(a.handleInput)
	a.composer.SetOnCancel(func() {
		if s := a.manager.Current(); s != nil {
			s.CancelCompose()
		}
		a.composer.SetText("")
		a.composer.ClearMode()
	})
}

func (a *App) setupLayout() {
	roomFlex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.thread, 0, 1, false).
		AddItem(a.composer, 3, 0, true)

	a.pages.AddPage("login", center(a.login, 50, 11), true, true)
	a.pages.AddPage("room", roomFlex, true, false)
	a.pages.AddPage("invite", a.invite, true, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetRoot(root, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		currentPage, _ := a.pages.GetFrontPage()

		if event.Key() == tcell.KeyEscape && currentPage == "invite" {
			a.pages.SwitchToPage("room")
			a.app.SetFocus(a.composer)
			return nil
		}

		// Let text input widgets handle all keys normally.
		focused := a.app.GetFocus()
		if _, ok := focused.(*tview.InputField); ok {
			return event
		}

		if currentPage == "room" && event.Key() == tcell.KeyRune && event.Rune() == 'i' {
			a.app.SetFocus(a.composer)
			return nil
		}

		return event
	})
}

// center wraps a primitive in a fixed-size centered box.
func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}

// handleInput routes one composer submission: slash commands locally,
// everything else to the session.
func (a *App) handleInput(text string) {
	s := a.manager.Current()
	if s == nil {
		a.flashErr("Not in a room")
		a.statusBar.Render()
		return
	}

	if strings.HasPrefix(text, "/") && text != protocol.QuitNotice {
		a.handleCommand(s, text)
		return
	}
	if text == protocol.QuitNotice {
		a.composer.SetText("")
		a.leaveRoom()
		return
	}

	a.composer.SetText("")
	go a.send(s, text, "")
}

func (a *App) handleCommand(s *chat.Session, text string) {
	fields := strings.Fields(text)
	cmd, arg := fields[0], ""
	if len(fields) > 1 {
		arg = fields[1]
	}

	switch cmd {
	case "/reply":
		id, ok := a.resolveOrdinal(arg)
		if !ok {
			return
		}
		target, err := s.StartReply(id)
		if err != nil {
			a.flashErr(err.Error())
			a.statusBar.Render()
			return
		}
		a.composer.SetText("")
		a.composer.SetReplyMode(target.Author)
	case "/edit":
		id, ok := a.resolveOrdinal(arg)
		if !ok {
			return
		}
		target, err := s.StartEdit(id)
		if err != nil {
			a.flashErr(err.Error())
			a.statusBar.Render()
			return
		}
		a.composer.SetEditMode(target.Content)
	case "/image":
		if arg == "" {
			a.flashErr("usage: /image <path>")
			a.statusBar.Render()
			return
		}
		a.composer.SetText("")
		go a.sendImage(s, arg)
	case "/invite":
		a.invite.Show(a.cfg.ServerURL, s.Room())
		a.composer.SetText("")
		a.pages.SwitchToPage("invite")
	case "/cancel":
		s.CancelCompose()
		a.composer.SetText("")
		a.composer.ClearMode()
	default:
		a.flashErr("Unknown command " + cmd)
		a.statusBar.Render()
	}
}

func (a *App) resolveOrdinal(arg string) (string, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		a.flashErr("Expected a message number")
		a.statusBar.Render()
		return "", false
	}
	id, ok := a.thread.MessageAt(n)
	if !ok {
		a.flashErr(fmt.Sprintf("No message [%d]", n))
		a.statusBar.Render()
		return "", false
	}
	return id, true
}

func (a *App) send(s *chat.Session, content, image string) {
	if err := s.Send(content, image); err != nil {
		a.flashErr("Send failed: " + err.Error())
	}
	a.app.QueueUpdateDraw(func() {
		a.composer.ClearMode()
		a.statusBar.Render()
	})
}

// sendImage reads a local file and ships it inline as a data URL, matching
// the wire shape browser clients produce.
func (a *App) sendImage(s *chat.Session, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		a.flashErr("Image read failed: " + err.Error())
		a.app.QueueUpdateDraw(a.statusBar.Render)
		return
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		a.flashErr("Not an image: " + mime)
		a.app.QueueUpdateDraw(a.statusBar.Render)
		return
	}
	url := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	a.send(s, "", url)
}

func (a *App) leaveRoom() {
	go a.manager.Leave()
}

func (a *App) flashErr(msg string) {
	a.flash.Set(msg, model.Error, flashDuration)
}

// Run starts the TUI application and its bus event loop.
func (a *App) Run() error {
	go a.eventLoop()
	go a.clockLoop()
	return a.app.Run()
}

// eventLoop drains the bus and schedules redraws. Handlers are idempotent
// against repeated or missed deliveries: every redraw reads current state
// rather than applying deltas.
func (a *App) eventLoop() {
	events, unsubscribe := a.bus.Subscribe("", 512)
	defer unsubscribe()

	for {
		select {
		case evt := <-events:
			a.handleBusEvent(evt)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) handleBusEvent(evt bus.Event) {
	switch {
	case strings.HasPrefix(evt.Kind, "message."):
		a.redrawThread()
	case evt.Kind == "room.system":
		if n, ok := evt.Payload.(*protocol.SystemNotice); ok {
			a.appendNotice(views.Notice{Content: n.Content, Timestamp: n.Timestamp})
		}
	case evt.Kind == "room.raw":
		if raw, ok := evt.Payload.(string); ok {
			a.appendNotice(views.Notice{Content: raw, Timestamp: time.Now().Unix(), Raw: true})
		}
	case evt.Kind == "room.stats":
		if stats, ok := evt.Payload.(*protocol.RoomStats); ok {
			a.app.QueueUpdateDraw(func() { a.statusBar.SetStats(stats) })
		}
	case evt.Kind == "session.status_changed":
		if change, ok := evt.Payload.(status.StatusChange); ok {
			a.app.QueueUpdateDraw(func() { a.statusBar.SetState(string(change.To)) })
		}
	case evt.Kind == "session.join_rejected":
		sentinel, _ := evt.Payload.(string)
		a.flashErr(sentinel)
		a.app.QueueUpdateDraw(func() {
			a.statusBar.SetRoom("")
			a.pages.SwitchToPage("login")
			a.app.SetFocus(a.login)
		})
	case evt.Kind == "session.left":
		a.app.QueueUpdateDraw(func() {
			a.mu.Lock()
			a.notices = a.notices[:0]
			a.mu.Unlock()
			a.thread.Update(nil, nil)
			a.composer.SetText("")
			a.composer.ClearMode()
			a.statusBar.SetRoom("")
			a.pages.SwitchToPage("login")
			a.app.SetFocus(a.login)
		})
	}
}

func (a *App) appendNotice(n views.Notice) {
	a.mu.Lock()
	a.notices = append(a.notices, n)
	a.mu.Unlock()
	a.redrawThread()
}

func (a *App) redrawThread() {
	s := a.manager.Current()
	if s == nil {
		return
	}
	msgs := s.Store().All()
	a.mu.Lock()
	notices := make([]views.Notice, len(a.notices))
	copy(notices, a.notices)
	a.mu.Unlock()

	a.app.QueueUpdateDraw(func() {
		a.thread.Update(msgs, notices)
	})
}

// clockLoop keeps the status bar clock current and expires stale flashes.
func (a *App) clockLoop() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.app.QueueUpdateDraw(a.statusBar.Render)
		case <-a.ctx.Done():
			return
		}
	}
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
