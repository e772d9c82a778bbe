package home

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/jsp88/jsp/internal/ui/theme"
)

const titleFull = `     ██╗███████╗██████╗      █████╗  █████╗
     ██║██╔════╝██╔══██╗    ██╔══██╗██╔══██╗
     ██║███████╗██████╔╝    ╚█████╔╝╚█████╔╝
██   ██║╚════██║██╔═══╝     ██╔══██╗██╔══██╗
╚█████╔╝███████║██║         ╚█████╔╝╚█████╔╝
 ╚════╝ ╚══════╝╚═╝          ╚════╝  ╚════╝`

const titleCompact = "J · S · P · 8 · 8"

// contentWidth returns the uniform inner width used for all sections.
func contentWidth(frameWidth int) int {
	// Leave room for frame border (2) + inner padding (4)
	w := frameWidth - 6
	if w > 60 {
		w = 60
	}
	if w < 20 {
		w = 20
	}
	return w
}

func renderTitle(cw int, compact bool) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	art := titleFull
	if compact {
		art = titleCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(style.Render(art))
}

// renderProfile renders the trainee's name and grade.
func renderProfile(name, grade string, cw int) string {
	if name == "" {
		name = "..."
	}
	line := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(name)
	if grade != "" {
		line += lipgloss.NewStyle().Foreground(theme.TextDim).Render("  ·  " + grade)
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(line)
}

// renderStatsBar renders local quiz stats and today's planning in a
// bordered box matching content width.
func renderStatsBar(st stats, cw int, compact bool) string {
	quizStyle := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	bestStyle := lipgloss.NewStyle().Foreground(theme.Success).Bold(true)
	eventStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(theme.TextDim)

	best := dimStyle.Render("—")
	if st.attempts > 0 {
		best = bestStyle.Render(fmt.Sprintf("%d%%", st.bestPercentage))
	}

	var text string
	if compact {
		text = fmt.Sprintf("%s %s %s",
			quizStyle.Render(fmt.Sprintf("✎%d", st.attempts)),
			best,
			eventStyle.Render(fmt.Sprintf("◷%d", st.eventsToday)),
		)
	} else {
		text = fmt.Sprintf("%s  %s %s  %s",
			quizStyle.Render(fmt.Sprintf("✎ %d QUIZZES", st.attempts)),
			dimStyle.Render("BEST"),
			best,
			eventStyle.Render(fmt.Sprintf("◷ %d TODAY", st.eventsToday)),
		)
	}

	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Secondary).
		Width(cw - 2). // account for border chars
		Align(lipgloss.Center).
		Padding(0, 1).
		Render(text)
}

// buttonWidth is the fixed width for menu buttons.
const buttonWidth = 22

// renderMenu renders each menu item as a fixed-width button, or as plain
// lines on compact terminals where bordered buttons would overflow.
func renderMenu(items []string, selected int, cw int, compact bool) string {
	selectedBtn := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(theme.Text).
		Background(theme.Primary).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Padding(0, 1)

	normalBtn := lipgloss.NewStyle().
		Width(buttonWidth).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Padding(0, 1)

	var lines []string
	for i, label := range items {
		switch {
		case compact && i == selected:
			lines = append(lines, theme.Selected.Render(" ▸ "+label+" "))
		case compact:
			lines = append(lines, theme.Unselected.Render("   "+label))
		case i == selected:
			lines = append(lines, selectedBtn.Render("▸ "+label))
		default:
			lines = append(lines, normalBtn.Render(label))
		}
	}

	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(strings.Join(lines, "\n"))
}

func renderWarning(text string, cw int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Warning).
		Width(cw).
		Align(lipgloss.Center).
		Render("⚠ " + text)
}

// renderFrame wraps content in a double-border frame, centering it
// vertically and horizontally within the given dimensions.
func renderFrame(content string, width, height int) string {
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(theme.Primary).
		Width(width - 2).   // account for border chars
		Height(height - 2). // account for border chars
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}
