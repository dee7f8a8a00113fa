package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"brutto-netto/lib/batch"
	"brutto-netto/lib/restyutil"
	"brutto-netto/lib/resultstore"
	"brutto-netto/lib/scrapers/wynagrodzenia"
	"brutto-netto/lib/telemetry"
	"brutto-netto/lib/timezone"

	"github.com/spf13/cobra"
)

var ErrNothingConverted = errors.New("none of the amounts could be converted")

func NewRootCmd() *cobra.Command {
	flags := &flagValues{}

	cmd := &cobra.Command{
		Use:   "brutto-netto [flags] <amount>...",
		Short: "brutto-netto converts gross salaries into net salaries using wynagrodzenia.pl.",
		Example: `  brutto-netto 4000 "2239 PLN" "4000,00 zł"
  brutto-netto --chart html --chart-out chart.html 3000 5000 8000`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if flags.verbose {
				telemetry.InitSlog(true)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Usage()
			}
			s, err := loadSettings(cmd, flags)
			if err != nil {
				return err
			}
			return convert(cmd, s, args)
		},
	}

	persistent := cmd.PersistentFlags()
	persistent.StringVar(&flags.config, "config", defaultConfigName, "The json5 config file, searched for in parent directories unless set explicitly.")
	persistent.StringVar(&flags.db, "db", "", "A sqlite database to record results in.")
	persistent.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging.")

	local := cmd.Flags()
	local.StringVar(&flags.baseUrl, "base-url", wynagrodzenia.DefaultBaseUrl, "The calculator's landing page.")
	local.DurationVar(&flags.taskTimeout, "timeout", batch.DefaultTaskTimeout, "How long to wait for each amount.")
	local.DurationVar(&flags.httpTimeout, "http-timeout", time.Second*30, "Timeout of each individual http request.")
	local.IntVar(&flags.concurrency, "concurrency", 0, "Maximum amounts converted at once, 0 converts all of them at once.")
	local.BoolVar(&flags.dropCents, "drop-cents", false, "Submit and print whole zloty amounts only.")
	local.StringVar(&flags.dumpDir, "dump-dir", "", "Write every http request and response into this directory.")
	local.StringVar(&flags.chart, "chart", chartTerminal, "Chart to render: terminal, html or none.")
	local.StringVar(&flags.chartOut, "chart-out", "chart.html", "Where to write the html chart.")
	local.StringVarP(&flags.output, "output", "o", outputText, "Output format: text, table or json.")

	cmd.AddCommand(newHistoryCmd(flags))

	return cmd
}

func ExecuteContext(ctx context.Context) int {
	cmd := NewRootCmd()
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func convert(cmd *cobra.Command, s settings, args []string) error {
	ctx := cmd.Context()

	var output restyutil.InstrumentOutput
	if s.DumpDir != "" {
		fsOutput, err := restyutil.NewFilesystemOutput(s.DumpDir)
		if err != nil {
			return err
		}
		output = fsOutput
		slog.InfoContext(ctx, "dumping http requests", "dir", fsOutput.Directory())
	}

	client, err := wynagrodzenia.NewClient(wynagrodzenia.ClientOptions{
		BaseUrl:    s.BaseUrl,
		Timeout:    s.httpTimeout,
		UserAgent:  s.UserAgent,
		Parameters: &s.Parameters,
		Output:     output,
	})
	if err != nil {
		return fmt.Errorf("create calculator client: %w", err)
	}

	runner := batch.NewRunner(client, batch.Options{
		TaskTimeout:    s.taskTimeout,
		MaxConcurrency: s.Concurrency,
		DropCents:      s.DropCents,
	})

	entries := batch.NewEntries(args)
	started := timezone.Now()
	b, err := runner.Start(ctx, entries)
	if err != nil {
		return err
	}
	defer b.Shutdown()

	progress := newProgress(cmd.ErrOrStderr(), len(entries))
	progress.Start()
	set := make(batch.ResultSet, 0, len(entries))
	for {
		result, ok := b.Next()
		if !ok {
			break
		}
		set = append(set, result)
		progress.Update(len(set))
	}
	progress.Stop()

	records := batch.Collect(set)
	err = printRecords(cmd.OutOrStdout(), s.Output, records)
	if err != nil {
		return err
	}

	if s.Db != "" {
		err = saveRun(ctx, s.Db, started, records)
		if err != nil {
			slog.ErrorContext(ctx, "failed to save results", "db", s.Db, "err", err)
		}
	}

	chartOut := cmd.OutOrStdout()
	if s.Output == outputJson {
		chartOut = cmd.ErrOrStderr()
	}
	err = renderChart(chartOut, s, records)
	if err != nil {
		return err
	}

	summary := batch.Summarize(records)
	slog.InfoContext(
		ctx, "batch finished",
		"total", summary.Total,
		"succeeded", summary.Succeeded,
		"timed_out", summary.TimedOut,
		"failed", summary.Failed,
		"invalid", summary.Invalid,
		"seconds", time.Since(started).Seconds(),
	)
	if summary.Succeeded == 0 {
		return ErrNothingConverted
	}
	return nil
}

func saveRun(ctx context.Context, path string, started time.Time, records []batch.Record) error {
	store, err := resultstore.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	runId, err := store.SaveRun(ctx, started, records)
	if err != nil {
		return err
	}
	slog.DebugContext(ctx, "saved results", "db", path, "run", runId)
	return nil
}
