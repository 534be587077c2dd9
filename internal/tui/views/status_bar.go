package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/rivo/tview"
	"github.com/yapchat/yap/internal/protocol"
	"github.com/yapchat/yap/internal/tui/model"
)

// StatusBar displays the session state, room membership counts, and any
// flash message.
type StatusBar struct {
	*tview.TextView
	profile string
	state   string
	room    string
	stats   *protocol.RoomStats
	flash   *model.Flash
}

// NewStatusBar creates the status bar.
func NewStatusBar(profile string, flash *model.Flash) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	sb := &StatusBar{TextView: tv, profile: profile, state: "DISCONNECTED", flash: flash}
	sb.Render()
	return sb
}

// SetState updates the session state display.
func (sb *StatusBar) SetState(state string) {
	sb.state = state
	sb.Render()
}

// SetRoom updates the joined room display. Empty clears it.
func (sb *StatusBar) SetRoom(code string) {
	sb.room = code
	if code == "" {
		sb.stats = nil
	}
	sb.Render()
}

// SetStats updates the member counts.
func (sb *StatusBar) SetStats(s *protocol.RoomStats) {
	sb.stats = s
	sb.Render()
}

// Render redraws the bar.
func (sb *StatusBar) Render() {
	sb.Clear()

	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s", sb.profile, sb.state)
	if sb.room != "" {
		line += " | room " + sb.room
	}
	if sb.stats != nil {
		line += fmt.Sprintf(" | [green]%d[-]/%d online", sb.stats.OnlineMembers, sb.stats.TotalMembers)
		if len(sb.stats.MemberNames) > 0 {
			line += ": " + sanitizeForTerminal(strings.Join(sb.stats.MemberNames, ", "))
		}
	}
	line += " | " + time.Now().Format("15:04")

	if msg, level := sb.flash.Get(); msg != "" {
		color := "navajowhite"
		if level == model.Error {
			color = "orangered"
		}
		line += fmt.Sprintf(" | [%s]%s[-]", color, tview.Escape(msg))
	}

	_, _ = fmt.Fprint(sb, line)
}
