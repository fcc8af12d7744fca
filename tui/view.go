package tui

import (
	"fmt"
	"strings"

	"github.com/arsu-cli/arsu/icon"
	"github.com/arsu-cli/arsu/playback"
	"github.com/arsu-cli/arsu/strategy"
	"github.com/arsu-cli/arsu/stream"
	"github.com/arsu-cli/arsu/style"
	"github.com/arsu-cli/arsu/util"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

var (
	paddingStyle  = lipgloss.NewStyle().Padding(1, 2)
	selectedStyle = lipgloss.NewStyle().Foreground(style.Accent).Bold(true).Underline(true)
	tierStyle     = lipgloss.NewStyle().Foreground(style.Overlay)
)

func (m *model) View() string {
	if m.quiting {
		return ""
	}

	width := m.width
	if width <= 0 {
		width = util.TerminalWidth(80)
	}

	sections := []string{
		style.Title(truncate.StringWithTail(m.options.Title, uint(max(width-8, 10)), "…")),
		m.viewQualities(),
		m.viewState(),
	}

	if m.status.State >= playback.Ready && m.dur > 0 {
		sections = append(sections, m.viewProgress())
	}

	if msg := m.viewError(); msg != "" {
		sections = append(sections, msg)
	}

	sections = append(sections, m.helpC.View(m.keymap))
	return paddingStyle.Render(strings.Join(sections, "\n\n"))
}

func (m *model) viewQualities() string {
	tiers := make([]string, 0, len(stream.Qualities()))
	for i, q := range stream.Qualities() {
		label := fmt.Sprintf("%d %s", i+1, q)
		if i == m.qualityIndex() {
			tiers = append(tiers, selectedStyle.Render(label))
		} else {
			tiers = append(tiers, tierStyle.Render(label))
		}
	}
	return strings.Join(tiers, "  ")
}

func (m *model) viewState() string {
	var symbol string
	switch m.status.State {
	case playback.Loading:
		symbol = m.spinnerC.View()
	case playback.Playing:
		symbol = icon.Get(icon.Play)
	case playback.Ready:
		symbol = icon.Get(icon.Pause)
	default:
		symbol = icon.Get(icon.Video)
	}

	line := fmt.Sprintf("%s %s", symbol, style.Bold(util.Capitalize(m.status.State.String())))
	if m.status.Strategy != strategy.Unsupported {
		line += style.Faint(fmt.Sprintf(" via %s", m.status.Strategy))
	}

	if m.status.AutoplayBlocked {
		line += "  " + style.Fg(style.Orange)("press space to start")
	}
	return line
}

func (m *model) viewProgress() string {
	ratio := m.pos / m.dur
	clock := fmt.Sprintf("%s / %s", util.FormatClock(m.pos), util.FormatClock(m.dur))
	return m.progressC.ViewAs(min(max(ratio, 0), 1)) + "\n" + style.Faint(clock)
}

func (m *model) viewError() string {
	err := m.status.Err
	if err == nil || m.status.AutoplayBlocked {
		err = m.err
	}
	if err == nil {
		return ""
	}
	return fmt.Sprintf("%s %s", icon.Get(icon.Fail), style.Fg(style.Red)(err.Error()))
}
