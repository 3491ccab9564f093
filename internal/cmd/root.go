package cmd

import (
	"github.com/quantmind-br/tytm/internal/config"
	"github.com/quantmind-br/tytm/internal/logging"
	"github.com/quantmind-br/tytm/internal/ui"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd(cfg *config.Config, log *zerolog.Logger, version string) *cobra.Command {
	var (
		verbose bool
		timeout int
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "tytm",
		Short: "Typora theme manager",
		Long: `tytm installs Typora themes from a manifest store, tracks which files each
theme owns and removes them again without touching anything else in the
themes directory.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			ui.InitColors()
			if noColor || cfg.Logging.Color == "never" {
				ui.DisableColors()
			}
			if cmd.Flags().Changed("timeout") {
				cfg.Network.Timeout = timeout
			}
			if verbose {
				*log = *logging.NewLogger(logging.Config{
					Level:   "debug",
					LogFile: cfg.Paths.LogFile,
					NoColor: !ui.AreColorsEnabled(),
					Verbose: true,
				})
			}
			log.Debug().
				Str("command", cmd.Name()).
				Str("theme_dir", cfg.Paths.ThemeDir).
				Str("manifest_dir", cfg.Paths.ManifestDir).
				Msg("starting")
		},
	}

	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug logs")
	cmd.PersistentFlags().IntVar(&timeout, "timeout", cfg.Network.Timeout, "network timeout in seconds")
	cmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(NewAddCmd(cfg, log))
	cmd.AddCommand(NewRemoveCmd(cfg, log))
	cmd.AddCommand(NewUpdateCmd(cfg, log))
	cmd.AddCommand(NewListCmd(cfg, log))
	cmd.AddCommand(NewInfoCmd(cfg, log))
	cmd.AddCommand(NewHistoryCmd(cfg, log))
	cmd.AddCommand(NewDoctorCmd(cfg, log))
	cmd.AddCommand(NewCompletionCmd(log))
	cmd.AddCommand(NewVersionCmd(version))

	return cmd
}
