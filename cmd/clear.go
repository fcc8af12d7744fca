package cmd

import (
	"fmt"

	"github.com/arsu-cli/arsu/auth"
	"github.com/arsu-cli/arsu/catalog"
	"github.com/arsu-cli/arsu/filesystem"
	"github.com/arsu-cli/arsu/history"
	"github.com/arsu-cli/arsu/icon"
	"github.com/arsu-cli/arsu/util"
	"github.com/arsu-cli/arsu/where"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
)

type clearTarget struct {
	name     string
	argLong  string
	argShort mo.Option[string]
	clear    func() error
}

var clearTargets = []clearTarget{
	{"cache directory", "cache", mo.Some("c"), func() error { return filesystem.API().RemoveAll(where.Cache()) }},
	{"video catalog", "catalog", mo.None[string](), catalog.Clear},
	{"history file", "history", mo.Some("s"), history.Clear},
	{"login session", "session", mo.None[string](), auth.End},
}

func init() {
	rootCmd.AddCommand(clearCmd)

	for _, target := range clearTargets {
		help := fmt.Sprintf("clear %s", target.name)
		if target.argShort.IsPresent() {
			clearCmd.Flags().BoolP(target.argLong, target.argShort.MustGet(), false, help)
		} else {
			clearCmd.Flags().Bool(target.argLong, false, help)
		}
	}
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached and stored application data",
	Run: func(cmd *cobra.Command, args []string) {
		var anyCleared bool

		for _, target := range clearTargets {
			if !lo.Must(cmd.Flags().GetBool(target.argLong)) {
				continue
			}

			anyCleared = true
			e := util.PrintErasable(fmt.Sprintf("%s Clearing %s...", icon.Get(icon.Progress), target.name))
			err := target.clear()
			e()
			handleErr(err)
			fmt.Printf("%s %s cleared\n", icon.Get(icon.Success), util.Capitalize(target.name))
		}

		if !anyCleared {
			handleErr(cmd.Help())
		}
	},
}
