package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

var (
	boldStyle   = lipgloss.NewStyle().Bold(true)
	blueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	greenStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	redStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	yellowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

// colorEnabled gates styling on stdout being a terminal that advertises
// color support, keeping piped output and NO_COLOR environments plain.
var colorEnabled = (isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())) &&
	termenv.EnvColorProfile() != termenv.Ascii

// SetColorEnabled overrides terminal detection, used by tests.
func SetColorEnabled(enabled bool) {
	colorEnabled = enabled
}

func render(style lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return style.Render(s)
}

// Bold renders text in bold
func Bold(s string) string { return render(boldStyle, s) }

// Blue renders text in blue
func Blue(s string) string { return render(blueStyle, s) }

// Green renders text in green
func Green(s string) string { return render(greenStyle, s) }

// Red renders text in red
func Red(s string) string { return render(redStyle, s) }

// Yellow renders text in yellow
func Yellow(s string) string { return render(yellowStyle, s) }

// Dim renders text faint
func Dim(s string) string { return render(dimStyle, s) }
