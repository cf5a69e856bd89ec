package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/student-bot/backend/internal/evaluation"
)

func (c *cli) newAskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer a single question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			fmt.Fprintln(cmd.OutOrStdout(), rt.engine.ProcessQuery(cmd.Context(), strings.Join(args, " ")))
			return nil
		},
	}
}

func (c *cli) newDemoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run the canned example questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := bootstrap(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			out := cmd.OutOrStdout()
			for _, q := range evaluation.DemoQueries() {
				fmt.Fprintf(out, "Query: %s\n", q)
				fmt.Fprintf(out, "Response: %s\n\n", rt.engine.ProcessQuery(cmd.Context(), q))
			}
			return nil
		},
	}
}
