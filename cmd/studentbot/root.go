package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/student-bot/backend/pkg/config"
	"github.com/student-bot/backend/pkg/logger"
)

type cli struct {
	cfgFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "studentbot",
		Short: "Answer natural-language questions about student records",
		Long: `studentbot routes free-text questions such as "What is the CGPA of Prasad?"
to a fixed set of lookups over the student database and replies in plain English.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(c.cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			c.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is ./config.yaml)")

	root.AddCommand(
		c.newServeCmd(),
		c.newAskCmd(),
		c.newDemoCmd(),
		c.newSeedCmd(),
		c.newImportCmd(),
		c.newEvalCmd(),
	)

	return root
}
