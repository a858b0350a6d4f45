package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/apk-analysis/droid-detective/internal/model"
	"github.com/apk-analysis/droid-detective/internal/service"
	"github.com/spf13/cobra"
)

func newTrainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "train",
		Short: "Train a new model from the sample directories and replace the saved one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			a, err := newApp(appOptions{history: true, progress: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.svc.Train(cmd.Context())
			if err != nil {
				return err
			}
			printTrainResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Show the header of the saved model without loading the classifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}

			header, err := model.NewStore(cfg.Model.Path).ReadHeader()
			if errors.Is(err, model.ErrModelNotFound) {
				return fmt.Errorf("no model at %s, run 'droiddetective train' first", cfg.Model.Path)
			}
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Path:\t%s\n", cfg.Model.Path)
			fmt.Fprintf(w, "Name:\t%s\n", header.Name)
			fmt.Fprintf(w, "Format:\tv%d (%s)\n", header.FormatVersion, header.PayloadEncoding)
			fmt.Fprintf(w, "Created:\t%s\n", header.CreatedAt.Format(time.DateOnly))
			fmt.Fprintf(w, "Catalog:\t%s\n", header.CatalogFingerprint)
			fmt.Fprintf(w, "Samples:\t%d train / %d test\n", header.TrainSamples, header.TestSamples)
			writeMetrics(w, header.Metrics())
			return w.Flush()
		},
	}
}

func printTrainResult(out io.Writer, result *service.TrainResult) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "Samples:\t%d benign, %d malware, %d skipped\n",
		result.Build.Benign, result.Build.Malware, result.Build.Skipped())
	fmt.Fprintf(w, "Split:\t%d train / %d test\n", result.Model.TrainSamples, result.Model.TestSamples)
	writeMetrics(w, result.Model.Metrics)
	fmt.Fprintf(w, "Took:\t%s\n", result.Duration.Round(time.Millisecond))
	w.Flush()
}

func writeMetrics(w io.Writer, m model.Metrics) {
	fmt.Fprintf(w, "Accuracy:\t%.4f\n", m.Accuracy)
	fmt.Fprintf(w, "Recall:\t%.4f\n", m.Recall)
	fmt.Fprintf(w, "Precision:\t%.4f\n", m.Precision)
	fmt.Fprintf(w, "F1:\t%.4f\n", m.F1)
	fmt.Fprintf(w, "OOB score:\t%.4f\n", m.OOBScore)
}
