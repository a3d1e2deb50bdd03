package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ivlev/site2video/internal/config"
	"github.com/ivlev/site2video/internal/logging"
	"github.com/ivlev/site2video/internal/system"
)

// Dependencies are resolved once before any subcommand runs.
type Dependencies struct {
	Version string
	Config  *config.Config
	Log     *slog.Logger
	Out     io.Writer
}

func NewRootCmd(deps *Dependencies) *cobra.Command {
	var (
		configPath string
		logLevel   string
		logFormat  string
		debug      bool
	)

	rootCmd := &cobra.Command{
		Use:   "site2video",
		Short: "Record showcase videos of websites",
		Long: "site2video frames a website (or local HTML, a PDF or a folder of images) on a portrait canvas\n" +
			"and records a human-looking tour of it: a pointer that drifts and hovers, eased scrolling with\n" +
			"pauses on headings and buttons, and a closing call to action.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = logLevel
			}
			if cmd.Flags().Changed("log-format") {
				cfg.LogFormat = logFormat
			}
			if cmd.Flags().Changed("debug") {
				cfg.Debug = debug
			}
			cfg.BuildVersion = deps.Version

			log, err := logging.Setup(cfg.LogLevel, cfg.LogFormat, os.Stderr)
			if err != nil {
				return err
			}
			deps.Config = cfg
			deps.Log = log
			system.InitResourceLimits(log)
			return nil
		},
	}

	rootCmd.Version = deps.Version
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "text or json")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "burn timing and act labels into the video")

	rootCmd.AddCommand(NewRecordCmd(deps))
	rootCmd.AddCommand(NewBatchCmd(deps))
	rootCmd.AddCommand(NewPlanCmd(deps))
	rootCmd.AddCommand(NewDoctorCmd(deps))

	return rootCmd
}

func (d *Dependencies) printf(format string, args ...any) {
	fmt.Fprintf(d.Out, format, args...)
}
