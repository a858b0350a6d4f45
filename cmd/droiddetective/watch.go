package main

import (
	"context"
	"fmt"

	"github.com/apk-analysis/droid-detective/internal/domain"
	"github.com/apk-analysis/droid-detective/internal/report"
	"github.com/apk-analysis/droid-detective/internal/service"
	"github.com/apk-analysis/droid-detective/internal/watcher"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var scanExisting bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Scan every package dropped into the inbox directory",
		Long: `watch classifies each .apk file written into watcher.dir and merges the
verdict into watcher.report. Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			a, err := newApp(appOptions{history: true, progress: cmd.ErrOrStderr()})
			if err != nil {
				return err
			}
			defer a.Close()

			if a.cfg.Watcher.Report != "" {
				if err := report.ValidateDestination(a.cfg.Watcher.Report); err != nil {
					return err
				}
			}
			if trained, err := a.svc.EnsureModel(cmd.Context()); err != nil {
				return err
			} else if trained != nil {
				printTrainResult(cmd.ErrOrStderr(), trained)
			}

			fw, err := startWatcher(cmd.Context(), a, watcher.WithScanExisting(scanExisting))
			if err != nil {
				return err
			}
			<-cmd.Context().Done()
			fw.Stop()
			return nil
		},
	}

	cmd.Flags().BoolVar(&scanExisting, "existing", false, "also scan packages already in the directory")
	return cmd
}

// startWatcher 监听收件目录，每个新 APK 都走一次检测
func startWatcher(ctx context.Context, a *app, opts ...watcher.Option) (*watcher.FileWatcher, error) {
	cfg := a.cfg.Watcher
	handle := func(ctx context.Context, path string) error {
		result, err := a.svc.Scan(ctx, path, cfg.Report, service.WithSource(domain.ScanSourceWatcher))
		if err != nil {
			return err
		}
		fmt.Println(result.Message())
		return nil
	}

	opts = append([]watcher.Option{watcher.WithDebounce(cfg.Debounce)}, opts...)
	fw, err := watcher.NewFileWatcher(cfg.Dir, "*.apk", handle, a.logger, opts...)
	if err != nil {
		return nil, err
	}
	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return nil, err
	}
	return fw, nil
}
