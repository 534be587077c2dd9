package ui

import "github.com/gdamore/tcell/v2"

// Theme holds color constants for the TUI.
type Theme struct {
	BgColor          tcell.Color
	FgColor          tcell.Color
	BorderColor      tcell.Color
	BorderFocusColor tcell.Color
	TitleColor       tcell.Color
	AuthorColor      tcell.Color
	SelfColor        tcell.Color
	SystemColor      tcell.Color
	TimestampColor   tcell.Color
	ReceiptColor     tcell.Color
	EditedColor      tcell.Color
	ReplyColor       tcell.Color
	MenuKeyColor     tcell.Color
	FlashInfoColor   tcell.Color
	FlashErrColor    tcell.Color
}

// DefaultTheme returns the default dark theme.
func DefaultTheme() *Theme {
	return &Theme{
		BgColor:          tcell.ColorBlack,
		FgColor:          tcell.ColorCadetBlue,
		BorderColor:      tcell.ColorDodgerBlue,
		BorderFocusColor: tcell.ColorLightSkyBlue,
		TitleColor:       tcell.ColorFuchsia,
		AuthorColor:      tcell.ColorAqua,
		SelfColor:        tcell.ColorPaleGreen,
		SystemColor:      tcell.ColorGray,
		TimestampColor:   tcell.ColorDarkGray,
		ReceiptColor:     tcell.ColorDeepSkyBlue,
		EditedColor:      tcell.ColorDarkGray,
		ReplyColor:       tcell.ColorNavajoWhite,
		MenuKeyColor:     tcell.ColorDodgerBlue,
		FlashInfoColor:   tcell.ColorNavajoWhite,
		FlashErrColor:    tcell.ColorOrangeRed,
	}
}
