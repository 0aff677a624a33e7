package cli

import (
	"fmt"

	"github.com/soyeahso/frontdesk/internal/config"
	"github.com/soyeahso/frontdesk/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	homeDir  string
	logLevel string

	// resolved before every command runs
	paths config.Paths
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "frontdesk",
		Short: "frontdesk: automated phone and chat receptionist",
		Long: "frontdesk answers calls and chats for a photography studio: it takes bookings,\n" +
			"tracks orders and answers questions in English, Hindi and Marathi.",
		PersistentPreRunE: setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default <home>/config.yaml)")
	flags.StringVar(&homeDir, "home", "", "state directory for config, logs and bookings (default $FRONTDESK_HOME or ~/.frontdesk)")
	flags.StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(
		newServeCmd(),
		newChatCmd(),
		newBookingsCmd(),
		newCatalogCmd(),
		newConfigCmd(),
		newStatusCmd(),
		newVersionCmd(),
	)
	return cmd
}

// setup resolves the state directory and the CLI logger. serve builds its
// own logger from the config file; this one covers the other commands.
func setup(cmd *cobra.Command, args []string) error {
	if logLevel != "" && !logging.ValidLevel(logLevel) {
		return fmt.Errorf("unknown log level %q", logLevel)
	}
	if homeDir != "" {
		paths = config.PathsAt(homeDir)
	} else {
		var err error
		if paths, err = config.ResolvePaths(); err != nil {
			return err
		}
	}
	if cfgFile != "" {
		paths.Config = cfgFile
	}
	level := logLevel
	if level == "" {
		level = "info"
	}
	log = logging.New(nil, level)
	return nil
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
