package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"codeberg.org/snonux/phonevalidator/internal/archive"
	"codeberg.org/snonux/phonevalidator/internal/cli"
	"codeberg.org/snonux/phonevalidator/internal/processor"
	"codeberg.org/snonux/phonevalidator/internal/report"
	"codeberg.org/snonux/phonevalidator/internal/store"
	"codeberg.org/snonux/phonevalidator/internal/telephony"
	"codeberg.org/snonux/phonevalidator/internal/transcribe"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create root command
	rootCmd := cli.CreateRootCommand(flags)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	// Set the run function
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, args, flags)
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, args []string, flags *cli.Flags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	options := cli.ProcessorOptions(flags)

	// Handle --clear-cache flag
	if flags.ClearCache {
		cacheDir := cli.TranscribeConfig("openai", true).CacheDir
		if err := transcribe.ClearCache(cacheDir); err != nil {
			return fmt.Errorf("failed to clear transcript cache: %w", err)
		}
		fmt.Printf("Transcript cache cleared: %s\n", cacheDir)
		return nil
	}

	// Handle --archive flag
	if flags.Archive {
		dest, err := archive.ArchiveRecordings(options.RecordingsDir)
		if err != nil {
			return fmt.Errorf("failed to archive recordings: %w", err)
		}
		fmt.Printf("Recordings archived to: %s\n", dest)
		return nil
	}

	// Handle --list-models flag
	if flags.ListModels {
		return cli.NewModelLister().ListTranscriptionModels(ctx, os.Stdout)
	}

	logger, err := cli.NewLogger(cli.LogFile(), flags.Verbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	deps := processor.Deps{
		Classifier: cli.NewClassifier(),
		Logger:     logger,
	}

	if !options.DryRun {
		if err := cli.ValidateCredentials(); err != nil {
			return err
		}
		if deps.Dialer, err = newDialer(logger); err != nil {
			return err
		}
		if deps.Transcriber, err = newTranscriber(logger); err != nil {
			return err
		}
		if cfg := cli.S3Config(); cfg.Enabled() {
			uploader, err := archive.NewS3Uploader(ctx, cfg)
			if err != nil {
				return err
			}
			deps.Uploader = uploader
		}
	}

	if path := cli.HistoryPath(); path != "" {
		history, err := store.Open(path)
		if err != nil {
			return err
		}
		defer history.Close()
		deps.History = history
	} else if options.SkipValidated {
		fmt.Fprintln(os.Stderr, "Warning: --skip-validated has no effect without --history")
	}

	output := flags.OutputFile
	if output == "" {
		output = report.DefaultOutputName(time.Now())
	}

	proc := processor.NewProcessor(deps, options)

	// Process single number
	if len(args) > 0 && flags.BatchFile == "" {
		if _, err := proc.ProcessSingle(ctx, args[0], output); err != nil {
			return err
		}
		if !options.DryRun {
			fmt.Printf("\nResult saved to: %s\n", output)
		}
		return nil
	}

	// Process batch file
	input := flags.BatchFile
	if input == "" {
		input = cli.DefaultBatchFile
	}

	summary, err := proc.ProcessBatch(ctx, input, output)
	summary.Print(os.Stdout)
	if err != nil {
		if ctx.Err() != nil {
			fmt.Fprintf(os.Stderr, "Interrupted, partial results saved to: %s\n", output)
		}
		return err
	}

	if !options.DryRun {
		fmt.Printf("\nResults saved to: %s\n", output)
	}
	return nil
}

func newDialer(logger *zap.Logger) (telephony.Dialer, error) {
	dialer, err := telephony.NewDialer(cli.TelephonyConfig())
	if err != nil {
		return nil, err
	}
	return telephony.NewBreakerDialer(dialer, cli.BreakerSettings(), logger), nil
}

func newTranscriber(logger *zap.Logger) (transcribe.Provider, error) {
	primaryName, fallbackName := cli.TranscriberNames()

	primary, err := transcribe.NewProvider(cli.TranscribeConfig(primaryName, true))
	if err != nil {
		return nil, fmt.Errorf("failed to create %s transcriber: %w", primaryName, err)
	}
	if fallbackName == "" {
		return primary, nil
	}

	fallback, err := transcribe.NewProvider(cli.TranscribeConfig(fallbackName, false))
	if err != nil {
		// Run without the fallback rather than not at all
		logger.Warn("fallback transcriber unavailable", zap.String("provider", fallbackName), zap.Error(err))
		return primary, nil
	}

	return transcribe.NewProviderWithFallback(primary, fallback, func(p transcribe.Provider, err error) {
		logger.Warn("transcriber failed, using fallback",
			zap.String("provider", p.Name()),
			zap.String("fallback", fallback.Name()),
			zap.Error(err))
	}), nil
}
