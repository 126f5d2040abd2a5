package cmd

import (
	"fmt"
	"os"

	"evot/internal/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "evotctl",
	Short: "EVOT admin CLI",
	Long: `evotctl performs operator tasks against the EVOT database and Redis:
seeding the first administrator, hashing passwords, running migrations and
requeueing failed notification emails.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(seedAdminCmd)
	rootCmd.AddCommand(hashCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(dlqCmd)
}
