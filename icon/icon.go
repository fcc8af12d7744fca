// Package icon renders status symbols in the configured variant.
package icon

import (
	"github.com/arsu-cli/arsu/key"
	"github.com/spf13/viper"
)

const (
	emoji = "emoji"
	nerd  = "nerd"
	plain = "plain"
)

// AvailableVariants returns every supported icon variant.
func AvailableVariants() []string {
	return []string{emoji, nerd, plain}
}

// Icon identifies a symbol.
type Icon int

const (
	Success Icon = iota
	Fail
	Progress
	Warn
	Play
	Pause
	Video
)

type iconDef struct {
	emoji string
	nerd  string
	plain string
}

var icons = map[Icon]*iconDef{
	Success:  {emoji: "🎉", nerd: "", plain: "✓"},
	Fail:     {emoji: "💀", nerd: "", plain: "✖"},
	Progress: {emoji: "⏳", nerd: "", plain: "…"},
	Warn:     {emoji: "⚠️", nerd: "", plain: "!"},
	Play:     {emoji: "▶️", nerd: "", plain: "▶"},
	Pause:    {emoji: "⏸️", nerd: "", plain: "‖"},
	Video:    {emoji: "🎞️", nerd: "", plain: "#"},
}

func (d *iconDef) get() string {
	switch viper.GetString(key.IconsVariant) {
	case emoji:
		return d.emoji
	case nerd:
		return d.nerd
	case plain:
		return d.plain
	default:
		return ""
	}
}

// Get returns the rendered symbol for i.
func Get(i Icon) string {
	if d, ok := icons[i]; ok {
		return d.get()
	}
	return ""
}
