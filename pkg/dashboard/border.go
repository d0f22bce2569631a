package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(Orange).Bold(true)
	grayStyle  = lipgloss.NewStyle().Foreground(Gray)
)

// BorderStr renders s in the border (cyan) colour.
func BorderStr(s string) string {
	return lipgloss.NewStyle().Foreground(Cyan).Render(s)
}

// TruncateToWidth truncates a styled string to at most maxW visible
// characters, padding it back to maxW when truncation cut a wide rune.
func TruncateToWidth(s string, maxW int) string {
	if lipgloss.Width(s) <= maxW {
		return s
	}
	var out strings.Builder
	for _, r := range s {
		out.WriteRune(r)
		if lipgloss.Width(out.String()) >= maxW {
			break
		}
	}
	result := out.String()
	if w := lipgloss.Width(result); w < maxW {
		result += strings.Repeat(" ", maxW-w)
	}
	return result
}

// RenderToLines renders content with 1-char horizontal padding into a
// slice of lines, each exactly innerW visual characters wide.
func RenderToLines(content string, innerW int) []string {
	rendered := lipgloss.NewStyle().Padding(0, 1).Width(innerW).Render(content)
	return strings.Split(rendered, "\n")
}

// PadLines ensures exactly targetRows lines, each innerW visual chars wide.
func PadLines(lines []string, targetRows, innerW int) []string {
	if len(lines) > targetRows {
		lines = lines[:targetRows]
	}
	for len(lines) < targetRows {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w < innerW {
			lines[i] = line + strings.Repeat(" ", innerW-w)
		}
	}
	return lines
}

// segment is one titled stretch of a horizontal border. width is the inner
// width of the panel below it; the title is drawn in style.
type segment struct {
	width int
	title string
	style lipgloss.Style
}

// rule draws a horizontal border from left to right corner, with one titled
// segment per panel and join between adjacent segments:
//
//	╭─ Account ────┬─ Collection ──╮
func rule(left, join, right string, segs ...segment) string {
	var b strings.Builder
	b.WriteString(BorderStr(left))
	for i, s := range segs {
		if i > 0 {
			b.WriteString(BorderStr(join))
		}
		dashes := max(s.width-3-lipgloss.Width(s.title), 0)
		b.WriteString(BorderStr("─") + " " + s.style.Render(s.title) + " " + BorderStr(strings.Repeat("─", dashes)))
	}
	b.WriteString(BorderStr(right))
	return b.String()
}

// BuildTopBorder builds: ╭─ LeftTitle ──┬─ RightTitle ──╮
func BuildTopBorder(leftW, rightW int, leftTitle, rightTitle string) string {
	return rule("╭", "┬", "╮",
		segment{leftW, leftTitle, labelStyle},
		segment{rightW, rightTitle, labelStyle})
}

// BuildSplitMiddleBorder builds: ├─ LeftTitle ──┼─ RightTitle ──┤
func BuildSplitMiddleBorder(leftW, rightW int, leftTitle, rightTitle string) string {
	return rule("├", "┼", "┤",
		segment{leftW, leftTitle, labelStyle},
		segment{rightW, rightTitle, labelStyle})
}

// BuildMiddleBorder builds: ├─ Title ──┴────────┤
// The ┴ closes the vertical divider of the panels above, which sits leftW+1
// columns from the left edge.
func BuildMiddleBorder(totalW, leftW int, title string) string {
	tw := lipgloss.Width(title)
	totalDashes := max(totalW-5-tw, 0)
	junction := leftW - 3 - tw
	fill := strings.Repeat("─", totalDashes)
	if junction >= 0 && junction < totalDashes {
		fill = strings.Repeat("─", junction) + "┴" + strings.Repeat("─", totalDashes-junction-1)
	}
	return BorderStr("├─") + " " + labelStyle.Render(title) + " " + BorderStr(fill+"┤")
}

// BuildBottomBorder builds: ╰─ footer ──────╯
func BuildBottomBorder(totalW int, footer string) string {
	return rule("╰", "", "╯", segment{totalW - 2, footer, grayStyle})
}

// JoinColumns joins two equally tall panels into framed rows: │left│right│
func JoinColumns(left, right []string) []string {
	rows := make([]string, len(left))
	for i := range left {
		r := ""
		if i < len(right) {
			r = right[i]
		}
		rows[i] = BorderStr("│") + left[i] + BorderStr("│") + r + BorderStr("│")
	}
	return rows
}

// logoLines holds the raw (uncolored) pterm BigText for "NFT".
var logoLines []string

func init() {
	raw, _ := pterm.DefaultBigText.WithLetters(putils.LettersFromString("NFT")).Srender()
	for _, line := range strings.Split(raw, "\n") {
		clean := pterm.RemoveColorFromString(line)
		if strings.TrimSpace(clean) != "" {
			logoLines = append(logoLines, clean)
		}
	}
}

// RenderLogo renders the logo with a horizontal gradient from orange to cyan.
func RenderLogo() []string {
	result := make([]string, len(logoLines))
	for i, line := range logoLines {
		runes := []rune(line)
		cols := float64(max(len(runes)-1, 1))
		var out strings.Builder
		for j, r := range runes {
			t := float64(j) / cols
			c := lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", int(255-t*255), int(116+t*(255-116)), int(t*255)))
			out.WriteString(lipgloss.NewStyle().Foreground(c).Render(string(r)))
		}
		result[i] = out.String()
	}
	return result
}

// OverlayLogo draws the logo in the bottom-right corner of the log pane when
// the pane is large enough to hold it.
func OverlayLogo(logLines []string, innerW int) []string {
	if len(logoLines) == 0 {
		return logLines
	}
	logo := RenderLogo()
	logoW := lipgloss.Width(logoLines[0])
	if len(logLines) < len(logo) || innerW < logoW+4 {
		return logLines
	}
	padLeft := innerW - logoW - 2
	for i, l := range logo {
		row := len(logLines) - len(logo) + i
		leftPart := strings.Repeat(" ", padLeft)
		if lipgloss.Width(logLines[row]) >= padLeft {
			leftPart = TruncateToWidth(logLines[row], padLeft)
		}
		combined := leftPart + l
		if cw := lipgloss.Width(combined); cw < innerW {
			combined += strings.Repeat(" ", innerW-cw)
		}
		logLines[row] = combined
	}
	return logLines
}
