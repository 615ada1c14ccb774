package logging

import "github.com/pterm/pterm"

var (
	WarnColorFG  = pterm.FgYellow
	WarnStyleBG  = pterm.NewStyle(pterm.BgYellow, pterm.FgBlack)
	ErrorColorFG = pterm.FgRed
	ErrorStyleBG = pterm.NewStyle(pterm.BgRed, pterm.FgWhite)
	InfoColorFG  = pterm.FgLightGreen
	InfoStyleBG  = pterm.NewStyle(pterm.BgLightGreen, pterm.FgBlack)
)

// formatMessage renders a tag banner followed by the message on one line.
func formatMessage(tagStyle *pterm.Style, color pterm.Color, tag, msg string) string {
	return tagStyle.Sprint(tag) + color.Sprint(" "+msg) + "\n"
}

// DisableColor turns off terminal styling, for output that is not a
// terminal.
func DisableColor() {
	pterm.DisableColor()
}
