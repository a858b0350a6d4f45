package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/apk-analysis/droid-detective/internal/report"
	"github.com/spf13/cobra"
)

var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"

	cfgFile  string
	logLevel string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "droiddetective <package.apk> [report.json]",
		Short: "Android APK malware classifier based on requested permissions",
		Long: `droiddetective classifies an Android package as malware or not malware
using a random forest trained on the permissions requested in its manifest.

When no model exists the classifier is trained first from the sample
directories configured under corpus (malware/ and normal/ by default).`,
		Args:          validateScanArgs,
		RunE:          runScan,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml), defaults and DD_* environment variables otherwise")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newTrainCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newWatchCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// validateScanArgs 在做任何事之前检查参数
func validateScanArgs(_ *cobra.Command, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errors.New("expected an Android package and an optional report file")
	}
	if !strings.HasSuffix(args[0], ".apk") {
		return fmt.Errorf("%q is not an Android package (.apk)", args[0])
	}
	if len(args) == 2 {
		if err := report.ValidateDestination(args[1]); err != nil {
			return err
		}
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	a, err := newApp(appOptions{history: true, progress: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer a.Close()

	trained, err := a.svc.EnsureModel(cmd.Context())
	if err != nil {
		return err
	}
	if trained != nil {
		printTrainResult(cmd.ErrOrStderr(), trained)
	}

	reportPath := ""
	if len(args) == 2 {
		reportPath = args[1]
	}

	result, err := a.svc.Scan(cmd.Context(), args[0], reportPath)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.Message())
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "DroidDetective %s\n", Version)
			fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
		},
	}
}
