package modal

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// Place draws fg over bg with its top-left corner at (x, y). bg is padded
// with blank lines and cells as needed; cells of bg outside fg keep their
// styling.
func Place(bg, fg string, x, y int) string {
	x, y = max(x, 0), max(y, 0)
	bgLines := strings.Split(bg, "\n")
	fgLines := strings.Split(fg, "\n")

	fgW := 0
	for _, l := range fgLines {
		fgW = max(fgW, ansi.StringWidth(l))
	}
	for len(bgLines) < y+len(fgLines) {
		bgLines = append(bgLines, "")
	}

	for i, fgLine := range fgLines {
		bgLine := bgLines[y+i]
		w := ansi.StringWidth(bgLine)
		if w < x {
			bgLine += strings.Repeat(" ", x-w)
			w = x
		}
		left := ansi.Cut(bgLine, 0, x)
		right := ""
		if w > x+fgW {
			right = ansi.Cut(bgLine, x+fgW, w)
		}
		if n := ansi.StringWidth(fgLine); n < fgW {
			fgLine += strings.Repeat(" ", fgW-n)
		}
		bgLines[y+i] = left + fgLine + right
	}
	return strings.Join(bgLines, "\n")
}

// Dim renders s in the backdrop color, dropping its own styling.
func Dim(s string) string {
	lines := strings.Split(ansi.Strip(s), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = Backdrop.Render(l)
		}
	}
	return strings.Join(lines, "\n")
}

// Fit pads or truncates s to exactly width cells and height lines.
func Fit(s string, width, height int) string {
	lines := strings.Split(s, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, l := range lines {
		switch n := ansi.StringWidth(l); {
		case n > width:
			lines[i] = ansi.Truncate(l, width, "")
		case n < width:
			lines[i] = l + strings.Repeat(" ", width-n)
		}
	}
	return strings.Join(lines, "\n")
}
