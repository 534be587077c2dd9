package views

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rivo/tview"
	"github.com/yapchat/yap/internal/store"
	"github.com/yapchat/yap/internal/tui/ui"
)

// Notice is a transcript line that never touches the message store: system
// announcements and raw relay text.
type Notice struct {
	Content   string
	Timestamp int64
	Raw       bool
}

// Thread renders the room transcript: stored messages interleaved with
// notices by timestamp. Each message carries a stable ordinal for the
// composer's /reply and /edit commands.
type Thread struct {
	*tview.TextView
	theme *ui.Theme
	self  string

	mu       sync.Mutex
	ordinals []string
}

// NewThread creates the transcript view.
func NewThread(theme *ui.Theme) *Thread {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Messages ")
	tv.SetTitleColor(theme.TitleColor)

	return &Thread{TextView: tv, theme: theme}
}

// SetSelf sets the local display name used for own-message markers.
func (t *Thread) SetSelf(name string) {
	t.self = name
}

// SetRoom updates the view title.
func (t *Thread) SetRoom(code string) {
	t.SetTitle(fmt.Sprintf(" Room %s ", code))
}

// MessageAt resolves a 1-based transcript ordinal to a message id.
func (t *Thread) MessageAt(ordinal int) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if ordinal < 1 || ordinal > len(t.ordinals) {
		return "", false
	}
	return t.ordinals[ordinal-1], true
}

type entry struct {
	ts   int64
	line string
}

// Update redraws the whole transcript. Redraws are idempotent: the same
// inputs always produce the same screen, so repeated bus deliveries are
// harmless.
func (t *Thread) Update(msgs []*store.Message, notices []Notice) {
	now := time.Now()

	t.mu.Lock()
	t.ordinals = t.ordinals[:0]
	entries := make([]entry, 0, len(msgs)+len(notices))
	for i, m := range msgs {
		t.ordinals = append(t.ordinals, m.ID)
		entries = append(entries, entry{ts: m.Timestamp, line: t.renderMessage(i+1, m, now)})
	}
	t.mu.Unlock()

	for _, n := range notices {
		entries = append(entries, entry{ts: n.Timestamp, line: t.renderNotice(n)})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].ts < entries[j].ts })

	t.Clear()
	for _, e := range entries {
		_, _ = fmt.Fprint(t, e.line)
	}
	t.ScrollToEnd()
}

func (t *Thread) renderMessage(ordinal int, m *store.Message, now time.Time) string {
	var sb strings.Builder

	author := m.Author
	authorColor := "aqua"
	if m.Author == t.self {
		author = "You"
		authorColor = "palegreen"
	}

	fmt.Fprintf(&sb, "[darkgray][%d][-] [%s::b]%s[-:-:-] [darkgray]%s[-]",
		ordinal, authorColor,
		tview.Escape(sanitizeForTerminal(author)),
		formatWhen(m.Timestamp, now))

	if m.Author == t.self {
		sb.WriteString(" " + t.receiptGlyph(m))
	}
	sb.WriteByte('\n')

	if m.ReplyTo != "" {
		fmt.Fprintf(&sb, "  [navajowhite]┌ %s: %s[-]\n",
			tview.Escape(sanitizeForTerminal(m.ReplyToAuthor)),
			tview.Escape(sanitizeForTerminal(truncate(m.ReplyToContent, 60))))
	}

	body := m.Content
	if m.Image != "" {
		if body != "" {
			body = "[image] " + body
		} else {
			body = "[image]"
		}
	}
	fmt.Fprintf(&sb, "  %s", tview.Escape(sanitizeForTerminal(body)))
	if m.Edited {
		sb.WriteString(" [darkgray](edited)[-]")
	}
	sb.WriteString("\n\n")
	return sb.String()
}

// receiptGlyph marks delivery state for own messages: one check delivered,
// two checks once anyone else has read it.
func (t *Thread) receiptGlyph(m *store.Message) string {
	for reader := range m.ReadBy {
		if reader != t.self {
			return "[deepskyblue]✓✓[-]"
		}
	}
	return "[darkgray]✓[-]"
}

func (t *Thread) renderNotice(n Notice) string {
	if n.Raw {
		return fmt.Sprintf("[gray]%s[-]\n\n", tview.Escape(sanitizeForTerminal(n.Content)))
	}
	return fmt.Sprintf("[gray]*** %s ***[-]\n\n", tview.Escape(sanitizeForTerminal(n.Content)))
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
