package views

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/rivo/tview"
	"github.com/yapchat/yap/internal/tui/ui"
)

// Invite displays a scannable QR code carrying the room's join link so a
// phone can open the web client straight into the room.
type Invite struct {
	*tview.TextView
}

// NewInvite creates the invite view.
func NewInvite(theme *ui.Theme) *Invite {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Invite ")
	tv.SetTitleColor(theme.TitleColor)

	return &Invite{TextView: tv}
}

// Show renders the invite QR for the given room.
func (iv *Invite) Show(serverURL, room string) {
	iv.Clear()
	link := inviteLink(serverURL, room)
	_, _ = fmt.Fprintf(iv, "\n  Room [::b]%s[-:-:-] — scan to join:\n\n%s\n  %s\n\n  [::d]Esc to go back",
		room, renderQR(link), link)
}

// inviteLink derives the browser join URL from the websocket endpoint.
func inviteLink(serverURL, room string) string {
	link := serverURL
	link = strings.Replace(link, "wss://", "https://", 1)
	link = strings.Replace(link, "ws://", "http://", 1)
	link = strings.TrimSuffix(link, "/ws")
	return link + "/?code=" + room
}

// renderQR converts a string to a compact QR code using Unicode half-block
// characters, two modules per terminal row.
func renderQR(content string) string {
	qr, err := qrcode.New(content, qrcode.Low)
	if err != nil {
		return "  (QR generation failed: " + err.Error() + ")"
	}

	bitmap := qr.Bitmap()
	rows := len(bitmap)
	cols := 0
	if rows > 0 {
		cols = len(bitmap[0])
	}

	var sb strings.Builder
	for y := 0; y < rows; y += 2 {
		sb.WriteString("  ")
		for x := 0; x < cols; x++ {
			top := bitmap[y][x]
			bot := false
			if y+1 < rows {
				bot = bitmap[y+1][x]
			}
			switch {
			case top && bot:
				sb.WriteRune('█')
			case top && !bot:
				sb.WriteRune('▀')
			case !top && bot:
				sb.WriteRune('▄')
			default:
				sb.WriteRune(' ')
			}
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}
