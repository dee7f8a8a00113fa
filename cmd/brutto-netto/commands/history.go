package commands

import (
	"fmt"

	"brutto-netto/lib/resultstore"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newHistoryCmd(flags *flagValues) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [--db <path/to/history.db>] [--limit <n>]",
		Short: "Lists previously recorded conversions.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, flags)
			if err != nil {
				return err
			}
			if s.Db == "" {
				return fmt.Errorf("no database given, use --db or set db in %s", defaultConfigName)
			}

			store, err := resultstore.Open(s.Db)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}

			t := newTable(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"run", "started", "brutto", "netto", "input"})
			for _, run := range runs {
				for _, r := range run.Records {
					t.AppendRow(table.Row{
						run.Id,
						run.StartedAt.Format("2006-01-02 15:04:05"),
						r.Gross,
						r.NetOrMarker(),
						r.Input,
					})
				}
			}
			t.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "How many runs to show.")

	return cmd
}
