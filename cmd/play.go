package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/arsu-cli/arsu/api"
	"github.com/arsu-cli/arsu/auth"
	"github.com/arsu-cli/arsu/catalog"
	"github.com/arsu-cli/arsu/history"
	"github.com/arsu-cli/arsu/key"
	"github.com/arsu-cli/arsu/log"
	"github.com/arsu-cli/arsu/metrics"
	"github.com/arsu-cli/arsu/playback"
	"github.com/arsu-cli/arsu/player"
	"github.com/arsu-cli/arsu/stream"
	"github.com/arsu-cli/arsu/tui"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringP("quality", "q", "", "Quality tier to request (240p, 480p, 720p, 1080p)")
	lo.Must0(playCmd.RegisterFlagCompletionFunc("quality", func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return lo.Map(stream.Qualities(), func(q stream.Quality, _ int) string { return q.String() }), cobra.ShellCompDirectiveNoFileComp
	}))
	playCmd.Flags().BoolP("select", "s", false, "Choose the quality tier interactively")
	playCmd.Flags().Bool("id", false, "Treat the argument as a video id and skip the catalog lookup")
	playCmd.Flags().BoolP("continue", "c", false, "Play the most recently watched video")

	playCmd.Flags().Bool("autoplay", true, "Start playback as soon as the stream is ready")
	lo.Must0(viper.BindPFlag(key.PlayerAutoplay, playCmd.Flags().Lookup("autoplay")))
	playCmd.Flags().Bool("engine", true, "Use the built-in segmented-streaming engine")
	lo.Must0(viper.BindPFlag(key.PlayerEngine, playCmd.Flags().Lookup("engine")))
	playCmd.Flags().String("metrics", "", "Expose prometheus metrics on this address while playing")
	lo.Must0(viper.BindPFlag(key.MetricsListen, playCmd.Flags().Lookup("metrics")))
}

var playCmd = &cobra.Command{
	Use:     "play <id|title>",
	Short:   "Stream a video",
	Example: "  arsu play abc123 -q 480p\n  arsu play \"big buck bunny\" --select\n  arsu play -c",
	Args:    cobra.MaximumNArgs(1),
	PreRun: func(cmd *cobra.Command, args []string) {
		if len(args) == 0 && !lo.Must(cmd.Flags().GetBool("continue")) {
			handleErr(errors.New("a video id or title is required, or --continue"))
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		CheckDependencies()

		ctx := cmd.Context()
		video, quality, err := resolveTarget(ctx, cmd, args)
		handleErr(err)

		handleErr(play(ctx, video, quality))
	},
}

func resolveTarget(ctx context.Context, cmd *cobra.Command, args []string) (api.Video, stream.Quality, error) {
	quality, err := pickQuality(cmd)
	if err != nil {
		return api.Video{}, "", err
	}

	if lo.Must(cmd.Flags().GetBool("continue")) {
		last, ok, err := history.Last()
		if err != nil {
			return api.Video{}, "", err
		}
		if !ok {
			return api.Video{}, "", errors.New("history is empty")
		}

		if !cmd.Flags().Changed("quality") && !lo.Must(cmd.Flags().GetBool("select")) {
			if q, err := stream.ParseQuality(last.Quality); err == nil {
				quality = q
			}
		}
		return api.Video{ID: last.ID, Title: last.Title}, quality, nil
	}

	if lo.Must(cmd.Flags().GetBool("id")) {
		return api.Video{ID: args[0], Title: args[0]}, quality, nil
	}

	session, err := auth.Current()
	if err != nil && !errors.Is(err, auth.ErrNoSession) {
		log.Warn(err)
	}

	video, err := catalog.Lookup(ctx, api.New(session), args[0])
	return video, quality, err
}

func pickQuality(cmd *cobra.Command) (stream.Quality, error) {
	if lo.Must(cmd.Flags().GetBool("select")) {
		options := lo.Map(stream.Qualities(), func(q stream.Quality, _ int) string { return q.String() })

		var answer string
		err := survey.AskOne(&survey.Select{
			Message: "Quality",
			Options: options,
			Default: viper.GetString(key.PlayerQuality),
		}, &answer)
		if err != nil {
			return "", err
		}
		return stream.ParseQuality(answer)
	}

	raw := lo.Must(cmd.Flags().GetString("quality"))
	if raw == "" {
		raw = viper.GetString(key.PlayerQuality)
	}
	return stream.ParseQuality(raw)
}

type positioner interface {
	GetTimePos() (float64, error)
	GetDuration() (float64, error)
}

func play(ctx context.Context, video api.Video, quality stream.Quality) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if addr := viper.GetString(key.MetricsListen); addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				log.Warnf("metrics: %v", err)
			}
		}()
	}

	element, err := player.New(viper.GetString(key.Player), viper.GetBool(key.PlayerAutoplay))
	if err != nil {
		return err
	}
	defer element.Close()

	if mpv, ok := element.(*player.MPV); ok {
		mpv.Title = video.String()
	}

	controller := playback.New(element, playback.WithEngine(viper.GetBool(key.PlayerEngine)))
	defer controller.Close()

	options := &tui.Options{
		Title:      video.String(),
		ResourceID: video.ID,
		Quality:    quality,
		Resolver:   stream.NewResolver(),
		Controller: controller,
		OnLoad: func(q stream.Quality) {
			if !viper.GetBool(key.HistorySaveOnPlay) {
				return
			}
			if err := history.Save(video.ID, video.Title, q.String()); err != nil {
				log.Warnf("history: %v", err)
			}
		},
	}

	if p, ok := element.(positioner); ok {
		options.Position = func() (float64, float64, error) {
			pos, err := p.GetTimePos()
			if err != nil {
				return 0, 0, err
			}
			dur, err := p.GetDuration()
			return pos, dur, err
		}
	}

	if err := tui.Run(options); err != nil {
		return fmt.Errorf("playback view: %w", err)
	}

	// the view is gone with the alt screen, so repeat why nothing played
	if s := controller.Status(); s.State < playback.Ready && s.Err != nil {
		return s.Err
	}
	return nil
}
