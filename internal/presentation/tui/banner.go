package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the vfxbridge banner and version to w.
func PrintBanner(w io.Writer, version string) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{` __   __ _____ __  __ _          _     _`, "#818cf8"},
		{` \ \ / /|  ___|\ \/ /| |__  _ __(_) __| | __ _  ___`, "#a78bfa"},
		{`  \ V / | |_    \  / | '_ \| '__| |/ _' |/ _' |/ _ \`, "#c084fc"},
		{`   \ /  |  _|   /  \ | |_) | |  | | (_| | (_| |  __/`, "#e879f9"},
		{`    V   |_|    /_/\_\|_.__/|_|  |_|\__,_|\__, |\___|`, "#f472b6"},
		{`                                         |___/`, "#fb7185"},
	}
	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintf(w, "  %s\n\n", termenv.String("version "+version).Faint())
}
