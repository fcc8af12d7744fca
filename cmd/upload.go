package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/AlecAivazis/survey/v2"
	"github.com/arsu-cli/arsu/api"
	"github.com/arsu-cli/arsu/auth"
	"github.com/arsu-cli/arsu/catalog"
	"github.com/arsu-cli/arsu/icon"
	"github.com/arsu-cli/arsu/log"
	"github.com/arsu-cli/arsu/style"
	"github.com/arsu-cli/arsu/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringP("title", "t", "", "Video title, prompted when omitted")
	uploadCmd.Flags().StringP("description", "d", "", "Video description")
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload a video file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session, err := auth.Current()
		handleErr(err)

		title := lo.Must(cmd.Flags().GetString("title"))
		if title == "" {
			base := filepath.Base(args[0])
			handleErr(survey.AskOne(&survey.Input{
				Message: "Title",
				Default: strings.TrimSuffix(base, filepath.Ext(base)),
			}, &title, survey.WithValidator(survey.Required)))
		}

		var (
			mu      sync.Mutex
			percent = -1
			erase   = func() {}
		)

		video, err := api.New(session).Upload(cmd.Context(), api.Upload{
			Title:       title,
			Description: lo.Must(cmd.Flags().GetString("description")),
			Path:        args[0],
			Progress: func(sent, total int64) {
				if total <= 0 {
					return
				}
				p := int(sent * 100 / total)

				mu.Lock()
				defer mu.Unlock()
				if p == percent {
					return
				}
				percent = p
				erase()
				erase = util.PrintErasable(fmt.Sprintf("%s Uploading %s %d%%", icon.Get(icon.Progress), title, p))
			},
		})
		mu.Lock()
		erase()
		mu.Unlock()
		handleErr(err)

		if err := catalog.Clear(); err != nil {
			log.Warnf("catalog: %v", err)
		}

		fmt.Printf("%s uploaded %s as %s\n",
			style.Fg(style.Green)(icon.Get(icon.Success)),
			style.Bold(video.String()),
			style.Fg(style.Purple)(video.ID),
		)
	},
}
