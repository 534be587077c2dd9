package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/yapchat/yap/internal/tui/ui"
)

// Composer is the input line for messages and slash commands. The title
// doubles as the mode indicator when a reply or edit cursor is armed.
type Composer struct {
	*tview.InputField
	onSubmit func(text string)
	onCancel func()
}

// NewComposer creates the composer.
func NewComposer(theme *ui.Theme) *Composer {
	input := tview.NewInputField().
		SetLabel(" > ").
		SetFieldWidth(0)
	input.SetBorder(true)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)
	input.SetTitleColor(theme.TitleColor)

	c := &Composer{InputField: input}
	c.ClearMode()

	input.SetDoneFunc(func(key tcell.Key) {
		switch key {
		case tcell.KeyEnter:
			text := c.GetText()
			if text != "" && c.onSubmit != nil {
				c.onSubmit(text)
			}
		case tcell.KeyEscape:
			if c.onCancel != nil {
				c.onCancel()
			}
		}
	})

	return c
}

// SetOnSubmit sets the callback for entered text. The callback decides
// whether to clear the field.
func (c *Composer) SetOnSubmit(fn func(text string)) { c.onSubmit = fn }

// SetOnCancel sets the callback for Escape.
func (c *Composer) SetOnCancel(fn func()) { c.onCancel = fn }

// SetReplyMode flags the armed reply target in the title.
func (c *Composer) SetReplyMode(author string) {
	c.SetTitle(fmt.Sprintf(" Replying to %s — Esc cancels ", author))
}

// SetEditMode flags the armed edit target and prefills its content.
func (c *Composer) SetEditMode(content string) {
	c.SetTitle(" Editing — Esc cancels ")
	c.SetText(content)
}

// ClearMode restores the plain compose title.
func (c *Composer) ClearMode() {
	c.SetTitle(" Compose — /reply N, /edit N, /invite, /quit ")
}
