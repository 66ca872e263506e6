package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gong-export-go/internal/config"
	"gong-export-go/internal/gong"
	"gong-export-go/internal/logger"
)

var version = "dev"

// app is what every subcommand needs once the root has loaded config.
type app struct {
	cfg        *config.Config
	log        *logger.Logger
	credential string
}

func (a *app) client() (*gong.Client, error) {
	return a.cfg.NewClient(a.credential, a.log)
}

func newRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "callexport",
		Short: "Export Gong calls and transcripts for LLM analysis",
		Long: `callexport pulls calls, details and transcripts from the Gong API,
classifies speakers as internal or external and writes a Markdown, XML or
JSON Lines document sized for a language model context window.

Credentials come from GONG_ACCESS_KEY and GONG_SECRET_KEY (a .env file in
the working directory is read first) or from --credential.`,
		Version:      version,
		SilenceUsage: true,
	}

	debug := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&a.credential, "credential", "", "Raw Authorization header value (overrides the key pair)")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		a.cfg = cfg
		// stdout carries command output; logs go to stderr
		a.log = logger.NewTo(os.Stderr)
		if *debug {
			a.log.Logger.SetLevel(logrus.DebugLevel)
		}
		return nil
	}

	cmd.AddCommand(newConnectCommand(a))
	cmd.AddCommand(newListCommand(a))
	cmd.AddCommand(newExportCommand(a))

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}
