package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zachspang/asciimovie/internal/cli"
	"github.com/zachspang/asciimovie/internal/config"
	"github.com/zachspang/asciimovie/internal/movie"
	"github.com/zachspang/asciimovie/internal/player"
	"github.com/zachspang/asciimovie/internal/terminal"
	"github.com/zachspang/asciimovie/internal/translate"
	"github.com/zachspang/asciimovie/internal/video"
)

var (
	startDelay = player.StartDelay
	sleep      = player.Sleep
	columns    = terminal.Columns
	openVideo  = video.Open
)

func newRootCmd() *cobra.Command {
	var (
		settings cli.Settings
		info     bool
	)

	rootCmd := &cobra.Command{
		Use:   "interpreter <input_obj>",
		Short: "Play ASCII movie documents in the terminal",
		Long: "Play an ASCII movie document produced by the translator. A path with a video\n" +
			"extension (.mp4, .avi, .mkv, .mov, .webm) is decoded and played directly.",
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, logger, err := settings.Setup(cmd.Flags(), out)
			if err != nil {
				logger.Error(err.Error())
				return nil
			}

			input := args[0]
			if video.IsVideoPath(input) {
				playVideo(cmd.Context(), out, cfg, logger, input)
				return nil
			}

			doc, warnings, err := movie.Load(input)
			if err != nil {
				logger.Error(err.Error())
				return nil
			}
			for _, w := range warnings {
				logger.Warn(string(w))
			}

			if info {
				if err := writeInfo(out, input, doc); err != nil {
					logger.Error(err.Error())
				}
				return nil
			}

			logger.Debug("document loaded", "path", input, "frames", len(doc.Frames), "fps", doc.FPS)
			play(cmd.Context(), out, cfg, logger, player.Frames(doc.Frames), doc.FPS)
			return nil
		},
	}

	rootCmd.Flags().BoolVar(&info, "info", false, "print the document's metadata instead of playing it")
	settings.BindCommon(rootCmd.Flags())
	settings.BindPlayback(rootCmd.Flags())
	settings.BindRender(rootCmd.Flags())
	return rootCmd
}

func playVideo(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger, input string) {
	opts, err := cli.TranslateOptions(cfg, columns)
	if err != nil {
		logger.Error(err.Error())
		return
	}
	opts.Input = input
	opts.Open = openVideo
	opts.Logger = logger

	src, info, err := translate.OpenSource(ctx, opts)
	if err != nil {
		logger.Error(err.Error())
		return
	}
	defer src.Close()

	logger.Info(fmt.Sprintf("Playing video: %s", input), "fps", info.FPS, "total_frames", info.Frames, "width", opts.Width)
	play(ctx, out, cfg, logger, src, info.FPS)
}

func play(ctx context.Context, out io.Writer, cfg *config.Config, logger *slog.Logger, src player.FrameSource, fps float64) {
	display, err := terminal.New(cfg.Playback.Clear, out)
	if err != nil {
		logger.Error(err.Error())
		return
	}

	p := &player.Player{
		Out:        out,
		Display:    display,
		Sleep:      sleep,
		StartDelay: startDelay,
		HideCursor: cfg.Playback.HideCursor && isTerminal(out),
		Logger:     logger,
	}
	start := time.Now()
	res, err := p.Play(ctx, src, fps)
	if err != nil {
		logger.Error(err.Error())
		return
	}
	logger.Debug("playback summary", "frames", res.Frames, "stopped", res.Stopped, "elapsed", time.Since(start).Round(time.Millisecond))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && terminal.IsTerminal(f)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
