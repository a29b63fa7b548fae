package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#1DB954", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	bar   lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		bar:   NewStyle(s),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// progressBar renders step/total as a fixed-width bar.
func progressBar(step, total, width int) string {
	if total <= 0 || width <= 0 {
		return ""
	}
	filled := min(step*width/total, width)
	return "[" + styles.bar.Render(strings.Repeat("█", filled)) + strings.Repeat("░", width-filled) + "]"
}
