package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"goa.design/clue/log"
)

// skipWireAnnotation marks commands that run without config or stores.
const skipWireAnnotation = "rfn.skip-wire"

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(buildCollaborators)
}

func newRootCmdWith(factory collaboratorFactory) *cobra.Command {
	var (
		configPath string
		debug      bool
	)
	state := &cliState{factory: factory}

	rootCmd := &cobra.Command{
		Use:           "rfn",
		Short:         "refine-cli (rfn): iterate on generated images and track reconstruction jobs",
		Long:          "rfn drives a generate, evaluate, refine loop over reference images, pauses for your feedback between iterations, and tracks the long-running 3D reconstruction jobs submitted from a chosen iteration.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			ctx := logContext(cmd, debug)
			cmd.SetContext(ctx)
			if cmd.Annotations[skipWireAnnotation] == "true" {
				return nil
			}
			return state.wire(ctx, configPath)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return state.close(cmd.Context())
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $HOME/.config/rfn/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logs")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRefineCmd(state),
		newSessionCmd(state),
		newJobCmd(state),
		newServeCmd(state),
	)

	return rootCmd
}

func logContext(cmd *cobra.Command, debug bool) context.Context {
	format := log.FormatJSON
	if log.IsTerminal() {
		format = log.FormatTerminal
	}
	ctx := log.Context(cmd.Context(), log.WithFormat(format), log.WithOutput(cmd.ErrOrStderr()))
	if debug {
		ctx = log.Context(ctx, log.WithDebug())
	}
	return ctx
}
