package tui

import (
	"github.com/arsu-cli/arsu/stream"
	"github.com/arsu-cli/arsu/style"
	"github.com/charmbracelet/bubbles/key"
)

type keymap struct {
	playPause, nextQuality, quit, forceQuit, showHelp key.Binding
	qualities                                         []key.Binding
}

func newKeymap() *keymap {
	k := &keymap{
		playPause: key.NewBinding(
			key.WithKeys(" ", "p"),
			key.WithHelp(style.Fg(style.Orange)("space"), style.Fg(style.Orange)("play/pause")),
		),
		nextQuality: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next quality"),
		),
		quit: key.NewBinding(
			key.WithKeys("q", "esc"),
			key.WithHelp("q", "quit"),
		),
		forceQuit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+d"),
			key.WithHelp("ctrl+c", "quit"),
		),
		showHelp: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}

	for i, q := range stream.Qualities() {
		digit := string(rune('1' + i))
		k.qualities = append(k.qualities, key.NewBinding(
			key.WithKeys(digit),
			key.WithHelp(digit, q.String()),
		))
	}

	return k
}

func (k *keymap) ShortHelp() []key.Binding {
	return []key.Binding{k.playPause, k.nextQuality, k.quit, k.showHelp}
}

func (k *keymap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.playPause, k.nextQuality, k.quit, k.forceQuit},
		k.qualities,
	}
}
