package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/arsu-cli/arsu/history"
	"github.com/arsu-cli/arsu/icon"
	"github.com/arsu-cli/arsu/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	historyCmd.Flags().StringP("remove", "r", "", "Forget the entry for this video id")
	historyCmd.SetOut(os.Stdout)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recently watched videos",
	Run: func(cmd *cobra.Command, args []string) {
		if id := lo.Must(cmd.Flags().GetString("remove")); id != "" {
			handleErr(history.Remove(id))
			fmt.Printf("%s removed %s\n", style.Fg(style.Green)(icon.Get(icon.Success)), style.Fg(style.Purple)(id))
			return
		}

		entries, err := history.List()
		handleErr(err)

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(entries))
			return
		}

		if len(entries) == 0 {
			cmd.Println(style.Faint("history is empty"))
			return
		}

		for _, e := range entries {
			cmd.Printf("%s  %s %s  %s\n",
				style.Faint(e.PlayedAt.Format("2006-01-02 15:04")),
				style.Bold(e.String()),
				style.Fg(style.Yellow)(e.Quality),
				style.Fg(style.Purple)(e.ID),
			)
		}
	},
}
