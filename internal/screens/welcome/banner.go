package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/jsp88/jsp/internal/ui/theme"
)

const bannerArt = `
      ██╗███████╗██████╗      █████╗  █████╗
      ██║██╔════╝██╔══██╗    ██╔══██╗██╔══██╗
      ██║███████╗██████╔╝    ╚█████╔╝╚█████╔╝
 ██   ██║╚════██║██╔═══╝     ██╔══██╗██╔══██╗
 ╚█████╔╝███████║██║         ╚█████╔╝╚█████╔╝
  ╚════╝ ╚══════╝╚═╝          ╚════╝  ╚════╝`

const bannerCompact = "J S P · 8 8"

// RenderBanner returns the JSP 88 banner in the primary color, with a
// compact fallback for terminals narrower than 50 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 50 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
