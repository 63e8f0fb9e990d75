package console

import "github.com/charmbracelet/lipgloss"

// theme groups reusable styles for console regions.
type theme struct {
	header        lipgloss.Style
	headerMeta    lipgloss.Style
	divider       lipgloss.Style
	bootLine      lipgloss.Style
	bootDone      lipgloss.Style
	operatorBox   lipgloss.Style
	operatorTitle lipgloss.Style
	nexusBox      lipgloss.Style
	nexusTitle    lipgloss.Style
	errorBox      lipgloss.Style
	errorTitle    lipgloss.Style
	status        lipgloss.Style
	statusBusy    lipgloss.Style
	statusErr     lipgloss.Style
	hint          lipgloss.Style
	inputLabel    lipgloss.Style
	input         lipgloss.Style
	viewport      lipgloss.Style
}

// defaultTheme defines the dark terminal palette used by the console.
func defaultTheme() theme {
	return theme{
		header: lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("55")),
		headerMeta: lipgloss.NewStyle().
			Foreground(lipgloss.Color("146")),
		divider: lipgloss.NewStyle().
			Foreground(lipgloss.Color("60")),
		bootLine: lipgloss.NewStyle().
			Foreground(lipgloss.Color("103")),
		bootDone: lipgloss.NewStyle().
			Foreground(lipgloss.Color("114")).
			Bold(true),
		operatorBox: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("135")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		operatorTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("135")).
			Padding(0, 1),
		nexusBox: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("44")).
			Background(lipgloss.Color("234")).
			Padding(0, 1),
		nexusTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("16")).
			Background(lipgloss.Color("44")).
			Padding(0, 1),
		errorBox: lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("203")).
			Foreground(lipgloss.Color("203")).
			Background(lipgloss.Color("52")).
			Padding(0, 1),
		errorTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("231")).
			Background(lipgloss.Color("160")).
			Padding(0, 1),
		status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("250")).
			Bold(true),
		statusBusy: lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")).
			Bold(true),
		statusErr: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true),
		hint: lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")),
		inputLabel: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("183")),
		input: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("97")).
			Background(lipgloss.Color("236")).
			Padding(0, 1),
		viewport: lipgloss.NewStyle().
			Border(lipgloss.ThickBorder()).
			BorderForeground(lipgloss.Color("60")).
			Background(lipgloss.Color("233")).
			Padding(0, 1),
	}
}
