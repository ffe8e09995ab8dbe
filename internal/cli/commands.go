package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joacominatel/dataconsole/internal/app"
	"github.com/joacominatel/dataconsole/internal/dataset"
	"github.com/joacominatel/dataconsole/internal/export"
	"github.com/spf13/cobra"
)

func newQueryCmd(rt *runtime) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a SQL statement against a dataset",
		Example: `  dataconsole query -d datamart.taxi "select * from DATASET limit 10"
  dataconsole query -d datamart.taxi --format json 'DESCRIBE SELECT * FROM DATASET'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service()
			if err != nil {
				return err
			}

			ctx, cancel := rt.context(cmd.Context())
			defer cancel()

			p, err := svc.Query(ctx, strings.Join(args, " "))
			if err != nil {
				return reportError(cmd, err)
			}

			out := cmd.OutOrStdout()
			return renderPayload(out, p, resolveFormat(format, out))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatAuto, "output format: auto, table, csv, json")
	return cmd
}

func newResetCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Restore a dataset to its unmodified state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := rt.service()
			if err != nil {
				return err
			}

			ctx, cancel := rt.context(cmd.Context())
			defer cancel()

			p, err := svc.Reset(ctx)
			if err != nil {
				return reportError(cmd, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Dataset %s reset: %d rows\n", svc.DatasetID(), len(p.Rows))
			return nil
		},
	}
}

func newExportCmd(rt *runtime) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export [SQL]",
		Short: "Run a SQL statement and write the rows to Modified.csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := rt.service()
			if err != nil {
				return err
			}

			ctx, cancel := rt.context(cmd.Context())
			defer cancel()

			p, err := svc.Query(ctx, strings.Join(args, " "))
			if err != nil {
				return reportError(cmd, err)
			}

			if dir == "" {
				dir = rt.cfg.Preferences.ExportDir
			}
			exp := export.FileExporter{Dir: dir}
			if err := exp.Export(p.Rows); err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d rows to %s\n", len(p.Rows), exp.Path())
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "out", "o", "", "output directory (default: preferences.export_dir)")
	return cmd
}

func newDatasetsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List saved datasets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if len(rt.cfg.Datasets) == 0 {
				_, _ = fmt.Fprintln(out, "No saved datasets.")
				return nil
			}

			def := rt.cfg.DefaultDataset()
			t := table.NewWriter()
			t.SetOutputMirror(out)
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"", "Name", "ID"})
			for _, d := range rt.cfg.Datasets {
				marker := ""
				if def != nil && d.ID == def.ID {
					marker = "*"
				}
				t.AppendRow(table.Row{marker, d.Name, d.ID})
			}
			t.Render()
			return nil
		},
	}
}

// reportError logs the failure and phrases it for the terminal.
func reportError(cmd *cobra.Command, err error) error {
	log.Infof("%s failed: %v", cmd.Name(), err)

	var serverErr *app.ErrServer
	if errors.As(err, &serverErr) {
		return fmt.Errorf("query engine: %w", err)
	}
	var decodeErr *dataset.DecodeError
	if errors.As(err, &decodeErr) {
		return fmt.Errorf("unreadable response from the query engine: %w", err)
	}
	return err
}
