package utils

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"
)

var bannerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#F4D060")).
	Bold(true)

// DrawBanner prints the ASCII art title
func DrawBanner(w io.Writer) {
	fig := figure.NewFigure("cloud steward", "small", true)
	fmt.Fprintln(w, bannerStyle.Render(fig.String()))
}
