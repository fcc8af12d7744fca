package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/arsu-cli/arsu/api"
	"github.com/arsu-cli/arsu/auth"
	"github.com/arsu-cli/arsu/catalog"
	"github.com/arsu-cli/arsu/style"
	"github.com/arsu-cli/arsu/util"
	"github.com/invopop/jsonschema"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(videosCmd)

	videosCmd.Flags().BoolP("refresh", "r", false, "Fetch the listing even if the cached one is fresh")
	videosCmd.Flags().BoolP("mine", "m", false, "List only videos uploaded by the logged in user")
	videosCmd.Flags().StringP("search", "s", "", "Filter by a fuzzy title match")
	videosCmd.Flags().BoolP("json", "j", false, "Format the output as JSON")
	videosCmd.Flags().BoolP("long", "l", false, "Include descriptions")
	videosCmd.SetOut(os.Stdout)
}

var videosCmd = &cobra.Command{
	Use:     "videos",
	Short:   "List the videos on the server",
	Aliases: []string{"ls"},
	Run: func(cmd *cobra.Command, args []string) {
		var (
			refresh = lo.Must(cmd.Flags().GetBool("refresh"))
			mine    = lo.Must(cmd.Flags().GetBool("mine"))
			query   = lo.Must(cmd.Flags().GetString("search"))
			asJson  = lo.Must(cmd.Flags().GetBool("json"))
			long    = lo.Must(cmd.Flags().GetBool("long"))
		)

		session, err := auth.Current()
		if err != nil && (mine || !errors.Is(err, auth.ErrNoSession)) {
			handleErr(err)
		}
		client := api.New(session)

		var videos []api.Video
		if mine {
			videos, err = client.VideosByUser(cmd.Context(), session.UserID)
		} else {
			videos, err = catalog.Load(cmd.Context(), client, refresh)
		}
		handleErr(err)

		if query != "" {
			videos = catalog.Search(videos, query)
		}

		if asJson {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(videos))
			return
		}

		if len(videos) == 0 {
			cmd.Println(style.Faint("no videos"))
			return
		}

		width := util.TerminalWidth(80)
		for _, v := range videos {
			cmd.Printf("%s  %s\n", style.Fg(style.Purple)(v.ID), style.Bold(v.String()))

			if long && strings.TrimSpace(v.Description) != "" {
				body := wordwrap.String(v.Description, max(width-4, 20))
				cmd.Println(style.Faint(indent.String(body, 4)))
			}
		}

		cmd.Println()
		cmd.Println(style.Faint(util.Quantify(len(videos), "video", "videos")))
	},
}

func init() {
	videosCmd.AddCommand(videosSchemaCmd)
}

var videosSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema of the --json output",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := new(jsonschema.Reflector)
		reflector.Anonymous = true
		reflector.Namer = func(t reflect.Type) string {
			if strings.EqualFold(t.Name(), "video") {
				return "api.Video"
			}
			return t.Name()
		}

		schema := reflector.Reflect([]api.Video{})
		handleErr(json.NewEncoder(os.Stdout).Encode(schema))
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find videos by title",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		session, _ := auth.Current()
		videos, err := catalog.Load(cmd.Context(), api.New(session), false)
		handleErr(err)

		found := catalog.Search(videos, strings.Join(args, " "))
		if len(found) == 0 {
			handleErr(fmt.Errorf("%w: %q", catalog.ErrNotFound, strings.Join(args, " ")))
		}

		for _, v := range found {
			fmt.Printf("%s  %s\n", style.Fg(style.Purple)(v.ID), v.String())
		}
	},
}
