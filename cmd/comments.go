package cmd

import (
	"fmt"
	"strings"

	"github.com/arsu-cli/arsu/api"
	"github.com/arsu-cli/arsu/auth"
	"github.com/arsu-cli/arsu/catalog"
	"github.com/arsu-cli/arsu/icon"
	"github.com/arsu-cli/arsu/style"
	"github.com/arsu-cli/arsu/util"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(commentsCmd)
	commentsCmd.Flags().Bool("id", false, "Treat the argument as a video id and skip the catalog lookup")
}

var commentsCmd = &cobra.Command{
	Use:   "comments <id|title>",
	Short: "Show the comments on a video",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session, _ := auth.Current()
		client := api.New(session)

		videoID := args[0]
		if !lo.Must(cmd.Flags().GetBool("id")) {
			video, err := catalog.Lookup(cmd.Context(), client, args[0])
			handleErr(err)
			videoID = video.ID
		}

		comments, err := client.Comments(cmd.Context(), videoID)
		handleErr(err)

		if len(comments) == 0 {
			fmt.Println(style.Faint("no comments"))
			return
		}

		width := util.TerminalWidth(80)
		for _, c := range comments {
			header := style.Fg(style.Purple)(lo.Ternary(c.UserID == "", "anonymous", c.UserID))
			if !c.CreatedAt.IsZero() {
				header += " " + style.Faint(c.CreatedAt.Format("2006-01-02 15:04"))
			}
			fmt.Println(header)
			fmt.Println(indent.String(wordwrap.String(c.Content, max(width-2, 20)), 2))
			fmt.Println()
		}
	},
}

func init() {
	commentsCmd.AddCommand(commentsAddCmd)
	commentsAddCmd.Flags().Bool("id", false, "Treat the argument as a video id and skip the catalog lookup")
}

var commentsAddCmd = &cobra.Command{
	Use:   "add <id|title> <text>",
	Short: "Comment on a video",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		session, err := auth.Current()
		handleErr(err)
		client := api.New(session)

		videoID := args[0]
		if !lo.Must(cmd.Flags().GetBool("id")) {
			video, err := catalog.Lookup(cmd.Context(), client, args[0])
			handleErr(err)
			videoID = video.ID
		}

		_, err = client.AddComment(cmd.Context(), videoID, strings.Join(args[1:], " "))
		handleErr(err)

		fmt.Printf("%s comment added\n", style.Fg(style.Green)(icon.Get(icon.Success)))
	},
}
