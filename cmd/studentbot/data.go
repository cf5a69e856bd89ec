package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/student-bot/backend/internal/evaluation"
	"github.com/student-bot/backend/internal/ingestion"
	"github.com/student-bot/backend/internal/storage/sqlite"
)

func (c *cli) newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load the sample roster into the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openStore(c.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			n, err := db.Seed(cmd.Context(), sqlite.SampleStudents())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d students into %s\n", n, c.cfg.SQLite.Path)
			return nil
		},
	}
}

func (c *cli) newImportCmd() *cobra.Command {
	var htmlPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a roster from an HTML table export",
		RunE: func(cmd *cobra.Command, args []string) error {
			if htmlPath == "" {
				return errors.New("--html is required")
			}

			f, err := os.Open(htmlPath)
			if err != nil {
				return fmt.Errorf("failed to open roster: %w", err)
			}
			defer f.Close()

			db, err := openStore(c.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			res, err := ingestion.NewProcessor(db).ImportHTML(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d students (%d rows skipped)\n", res.Imported, res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&htmlPath, "html", "", "path to the HTML roster export")
	return cmd
}

func (c *cli) newEvalCmd() *cobra.Command {
	var datasetPath string

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Score the router against a dataset of expected answers",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				dataset *evaluation.Dataset
				err     error
			)
			if datasetPath != "" {
				dataset, err = evaluation.LoadDatasetFile(datasetPath)
				if err != nil {
					return err
				}
			} else {
				dataset = &evaluation.Dataset{}
				for _, q := range evaluation.DemoQueries() {
					dataset.Items = append(dataset.Items, evaluation.DatasetItem{Query: q})
				}
			}

			rt, err := bootstrap(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer rt.Close()

			report := evaluation.NewEvaluator(rt.engine).Run(cmd.Context(), dataset)
			fmt.Fprint(cmd.OutOrStdout(), evaluation.GenerateReport(report))

			if report.Failed > 0 {
				return fmt.Errorf("%d of %d queries did not match", report.Failed, report.Total)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "JSON dataset of {query, expected} items (default: demo queries)")
	return cmd
}
