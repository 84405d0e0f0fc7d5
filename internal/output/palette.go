package output

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const (
	directoryColor = lipgloss.Color("4")
	symlinkColor   = lipgloss.Color("6")
)

// Palette holds the styles applied to entry names in tree art.
// The zero value leaves every name undecorated.
type Palette struct {
	directoryStyle lipgloss.Style
	symlinkStyle   lipgloss.Style
	enabled        bool
}

// NewPalette returns the console palette. Directories are blue and links cyan
// when colorEnabled is true; otherwise every style renders plain text.
func NewPalette(colorEnabled bool) Palette {
	renderer := lipgloss.NewRenderer(io.Discard)
	if colorEnabled {
		renderer.SetColorProfile(termenv.ANSI)
	} else {
		renderer.SetColorProfile(termenv.Ascii)
	}
	return Palette{
		directoryStyle: renderer.NewStyle().Foreground(directoryColor),
		symlinkStyle:   renderer.NewStyle().Foreground(symlinkColor),
		enabled:        colorEnabled,
	}
}

func (palette Palette) directory(name string) string {
	if !palette.enabled {
		return name
	}
	return palette.directoryStyle.Render(name)
}

func (palette Palette) symlink(name string) string {
	if !palette.enabled {
		return name
	}
	return palette.symlinkStyle.Render(name)
}
