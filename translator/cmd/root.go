package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zachspang/asciimovie/internal/cli"
	"github.com/zachspang/asciimovie/internal/terminal"
	"github.com/zachspang/asciimovie/internal/translate"
	"github.com/zachspang/asciimovie/internal/video"
)

var (
	// columns reports the terminal width for --width 0.
	columns   = terminal.Columns
	openVideo = video.Open
)

func newRootCmd() *cobra.Command {
	var settings cli.Settings

	rootCmd := &cobra.Command{
		Use:   "translator <input_video> <output_obj>",
		Short: "Convert a video into an ASCII movie document",
		Long: "Convert a video into an ASCII movie document: a JSON file holding every frame\n" +
			"as ASCII art, which the interpreter plays back in the terminal.",
		Args:          cobra.ExactArgs(2),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			cfg, logger, err := settings.Setup(cmd.Flags(), out)
			if err != nil {
				logger.Error(err.Error())
				return nil
			}

			opts, err := cli.TranslateOptions(cfg, columns)
			if err != nil {
				logger.Error(err.Error())
				return nil
			}
			opts.Input = args[0]
			opts.Output = args[1]
			opts.Logger = logger
			opts.Open = openVideo
			opts.Progress = progressOutput(cmd)

			if _, err := translate.Run(cmd.Context(), opts); err != nil {
				if errors.Is(err, context.Canceled) {
					logger.Warn("Translation cancelled, no output written.")
					return nil
				}
				logger.Error(err.Error())
			}
			return nil
		},
	}

	settings.BindCommon(rootCmd.Flags())
	settings.BindRender(rootCmd.Flags())
	return rootCmd
}

// progressOutput draws the bar on stderr, and only when stderr is a terminal.
func progressOutput(cmd *cobra.Command) io.Writer {
	f, ok := cmd.ErrOrStderr().(*os.File)
	if !ok {
		return nil
	}
	return translate.ProgressWriter(f)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
