package views

import (
	"github.com/rivo/tview"
	"github.com/yapchat/yap/internal/tui/ui"
)

// Login collects the display name and room code before joining.
type Login struct {
	*tview.Form
	onJoin func(name, room string)
}

// NewLogin creates the join form with the given prefills.
func NewLogin(theme *ui.Theme, name, room string) *Login {
	form := tview.NewForm()
	form.SetBorder(true)
	form.SetBorderColor(theme.BorderColor)
	form.SetBackgroundColor(theme.BgColor)
	form.SetFieldBackgroundColor(theme.BgColor)
	form.SetFieldTextColor(theme.FgColor)
	form.SetLabelColor(theme.MenuKeyColor)
	form.SetButtonBackgroundColor(theme.BorderColor)
	form.SetTitle(" Join a room ")
	form.SetTitleColor(theme.TitleColor)

	l := &Login{Form: form}

	form.AddInputField("Name", name, 32, nil, nil)
	form.AddInputField("Room code", room, 32, nil, nil)
	form.AddButton("Join", func() {
		n := form.GetFormItemByLabel("Name").(*tview.InputField).GetText()
		r := form.GetFormItemByLabel("Room code").(*tview.InputField).GetText()
		if n == "" || r == "" || l.onJoin == nil {
			return
		}
		l.onJoin(n, r)
	})

	return l
}

// SetOnJoin sets the join callback.
func (l *Login) SetOnJoin(fn func(name, room string)) { l.onJoin = fn }
