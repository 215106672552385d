package render

import "github.com/charmbracelet/lipgloss"

var (
	colorOrange  = lipgloss.Color("#F28C28")
	colorGreen   = lipgloss.Color("78")
	colorYellow  = lipgloss.Color("220")
	colorRed     = lipgloss.Color("196")
	colorMagenta = lipgloss.Color("213")
	colorBlue    = lipgloss.Color("111")
	colorGray    = lipgloss.Color("242")
	colorDimGray = lipgloss.Color("238")
)

var cardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(colorDimGray).
	Padding(0, 1)

var abortedCardStyle = cardStyle.
	BorderForeground(colorRed)

var titleStyle = lipgloss.NewStyle().
	Foreground(colorOrange).
	Bold(true)

var subjectStyle = lipgloss.NewStyle().
	Foreground(colorBlue)

var bodyStyle = lipgloss.NewStyle().
	Foreground(colorGray)

var thinkStyle = lipgloss.NewStyle().
	Foreground(colorMagenta).
	Italic(true)

var pendingBadgeStyle = lipgloss.NewStyle().
	Foreground(colorYellow)

var abortedBadgeStyle = lipgloss.NewStyle().
	Foreground(colorRed)

var finishedBadgeStyle = lipgloss.NewStyle().
	Foreground(colorGreen)

var errorStyle = lipgloss.NewStyle().
	Foreground(colorRed).
	Bold(true)

var warnStyle = lipgloss.NewStyle().
	Foreground(colorYellow).
	Bold(true)

var suggestionStyle = lipgloss.NewStyle().
	Foreground(colorOrange)
