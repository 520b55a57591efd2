package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bassamadnan/mailtally/config"
	"github.com/bassamadnan/mailtally/gmail"
	"github.com/bassamadnan/mailtally/imap"
	"github.com/bassamadnan/mailtally/logging"
	"github.com/bassamadnan/mailtally/mailbox"
	"github.com/bassamadnan/mailtally/metrics"
	"github.com/bassamadnan/mailtally/report"
	"github.com/bassamadnan/mailtally/tally"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

const defaultConfigPath = "config/mailtally.json"

type fetcherFactory func(ctx context.Context, settings config.Settings) (mailbox.Fetcher, error)

func newFetcher(ctx context.Context, settings config.Settings) (mailbox.Fetcher, error) {
	switch settings.Source {
	case config.SourceGmail:
		c, err := gmail.NewClient(ctx, settings.Gmail)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gmail client: %w. Ensure %s is present and valid", err, settings.Gmail.CredentialsFile)
		}
		return c, nil
	case config.SourceIMAP:
		return imap.NewClient(settings.IMAP), nil
	default:
		return nil, fmt.Errorf("%w: unknown source %q", config.ErrInvalidConfig, settings.Source)
	}
}

func newRootCmd(factory fetcherFactory) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "mailtally",
		Short: "Count received and read messages per sender",
		Long: `mailtally fetches a batch of messages from one mail folder and prints, for every
sender, how many messages arrived and how many of them were read.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), cmd.OutOrStdout(), configPath, factory)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Configuration file path")

	ignoreCmd := &cobra.Command{
		Use:   "ignore",
		Short: "Add a rule that drops matching messages before counting",
	}
	ignoreCmd.AddCommand(&cobra.Command{
		Use:   "sender <address-or-domain>",
		Short: "Ignore messages whose sender contains the given text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgManager, err := config.NewManager(configPath)
			if err != nil {
				return err
			}
			if err := cfgManager.AddIgnoreSender(args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ignoring sender %s\n", args[0])
			return err
		},
	})
	ignoreCmd.AddCommand(&cobra.Command{
		Use:   "subject <keyword>",
		Short: "Ignore messages whose subject contains the given keyword",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgManager, err := config.NewManager(configPath)
			if err != nil {
				return err
			}
			if err := cfgManager.AddIgnoreKeywordInSubject(args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ignoring subject keyword %s\n", args[0])
			return err
		},
	})
	rootCmd.AddCommand(ignoreCmd)

	return rootCmd
}

// run performs one fetch, aggregate, report pass.
func run(ctx context.Context, out io.Writer, configPath string, factory fetcherFactory) error {
	cfgManager, err := config.NewManager(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config manager: %w", err)
	}
	settings := cfgManager.Settings()

	logFile, err := logging.Open(settings.LogFile, settings.Debug)
	if err != nil {
		return err
	}
	defer logFile.Close()
	logger := logging.Logger
	level.Info(logger).Log("component", "main", "msg", "run starting",
		"source", settings.Source, "folder", settings.Folder, "max", settings.MaxCount)

	metrics.InitMetrics()

	fetcher, err := factory(ctx, settings)
	if err != nil {
		level.Error(logger).Log("component", "main", "msg", "failed to create mail source", "err", err)
		return err
	}

	start := time.Now()
	msgs, err := fetcher.Fetch(ctx, settings.Folder, settings.MaxCount)
	metrics.ObserveFetch(start)
	if err != nil {
		level.Error(logger).Log("component", "main", "msg", "fetch failed", "err", err)
		writeMetrics(settings.MetricsTextfile)
		return fmt.Errorf("failed to fetch messages: %w", err)
	}
	metrics.MessagesFetchedTotal.WithLabelValues(settings.Source, settings.Folder).Add(float64(len(msgs)))

	msgs, ignored := mailbox.NewFilter(cfgManager.GetFilters()).Apply(msgs)
	metrics.MessagesIgnoredTotal.Add(float64(ignored))

	printer := report.NewPrinter(out)
	if err := printer.Messages(msgs); err != nil {
		return err
	}

	senders := tally.Aggregate(msgs)
	skipped := tally.Skipped(msgs)
	total := senders.Total()
	metrics.MessagesSkippedTotal.Add(float64(skipped))
	metrics.MessagesOpenedTotal.Add(float64(total.Opened))
	metrics.Senders.Set(float64(len(senders)))
	if skipped > 0 {
		level.Warn(logger).Log("component", "main", "msg", "messages without a sender were left out", "count", skipped)
	}

	if err := printer.Summary(senders, skipped); err != nil {
		return err
	}
	level.Info(logger).Log("component", "main", "msg", "run complete",
		"fetched", len(msgs)+ignored, "ignored", ignored, "senders", len(senders), "opened", total.Opened)

	metrics.MarkSuccess(time.Now())
	return writeMetrics(settings.MetricsTextfile)
}

func writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	if err := metrics.WriteTextfile(path); err != nil {
		level.Error(logging.Logger).Log("component", "metrics", "msg", "unable to write textfile", "path", path, "err", err)
		return fmt.Errorf("unable to write metrics textfile: %w", err)
	}
	return nil
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		level.Info(logging.Logger).Log("component", "main", "msg", "shutdown signal received, cancelling context")
		cancel()
	}()

	if err := newRootCmd(newFetcher).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "mailtally:", err)
		cancel()
		os.Exit(1)
	}
}
