package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dalemusser/camphub/internal/app/features/participants/xlsxutil"
	registrantstore "github.com/dalemusser/camphub/internal/app/store/registrants"
	"github.com/dalemusser/camphub/internal/app/system/auditlog"
	"github.com/dalemusser/camphub/internal/app/system/rules"
	"github.com/dalemusser/camphub/internal/app/system/timeouts"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// writeFile writes data to path, refusing to clobber an existing file
// unless force is set.
func writeFile(path string, data []byte, force bool) error {
	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s exists; use --force to overwrite", path)
		}
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newTemplateCmd(g *globals) *cobra.Command {
	var rows int
	var force bool

	cmd := &cobra.Command{
		Use:   "template [out.xlsx]",
		Short: "Write the blank import workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := xlsxutil.TemplateFilename
			if len(args) == 1 {
				out = args[0]
			}
			data, err := xlsxutil.BuildTemplate(xlsxutil.TemplateOptions{ValidationRows: rows})
			if err != nil {
				return err
			}
			if err := writeFile(out, data, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", out, len(data))
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "validation-rows", xlsxutil.DefaultTemplateValidationRows, "rows that get dropdown validation")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newImportCmd(g *globals) *cobra.Command {
	var keys string
	var maxRows int

	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Import registrants from a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			conflictKeys, err := registrantstore.ParseConflictKeys(keys)
			if err != nil {
				return err
			}

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			if st, err := f.Stat(); err == nil && st.Size() > xlsxutil.MaxUploadSize {
				return fmt.Errorf("%s is %d bytes; the limit is %d", args[0], st.Size(), xlsxutil.MaxUploadSize)
			}

			ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Batch(), g.log, "cli import")
			defer cancel()
			db, err := g.connect(ctx)
			if err != nil {
				return err
			}

			im := xlsxutil.NewImporter(registrantstore.New(db, g.log), conflictKeys, g.log)
			if maxRows > 0 {
				im.MaxRows = maxRows
			}
			res := im.Process(ctx, f)

			g.audit(db).ParticipantsImported(ctx, nil, primitive.NilObjectID, auditlog.ImportSummary{
				BatchID:   res.BatchID,
				Filename:  filepath.Base(args[0]),
				Processed: res.ProcessedRows,
				Inserted:  res.InsertedCount,
				Skipped:   res.SkippedCount,
				Success:   res.Success,
				Message:   res.Message,
			})

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, res.Message)
			for _, e := range res.Errors {
				fmt.Fprintln(w, "  "+e)
			}
			if res.InsertedCount > 0 {
				fmt.Fprintf(w, "Batch %s (undo with: camphubctl undo-import %s)\n", res.BatchID, res.BatchID)
			}
			if !res.Success {
				return errors.New("import failed")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&keys, "conflict-keys", env("import_conflict_keys", ""), "comma-separated fields that identify an existing registrant (CAMPHUB_IMPORT_CONFLICT_KEYS)")
	cmd.Flags().IntVar(&maxRows, "max-rows", xlsxutil.MaxRows, "maximum data rows")
	return cmd
}

func newUndoImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "undo-import <batch-id>",
		Short: "Delete every registrant written by one import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Batch())
			defer cancel()
			db, err := g.connect(ctx)
			if err != nil {
				return err
			}
			n, err := registrantstore.New(db, g.log).DeleteByBatch(ctx, args[0])
			g.audit(db).ImportUndone(ctx, nil, primitive.NilObjectID, args[0], n, err)
			if err != nil {
				return err
			}
			g.log.Info("import undone", zap.String("batch", args[0]), zap.Int64("deleted", n))
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d registrant(s) from batch %s\n", n, args[0])
			return nil
		},
	}
}

func newExportCmd(g *globals) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "export [out.xlsx]",
		Short: "Export eligible registrants, one sheet per group",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			out := xlsxutil.ExportFilename(now)
			if len(args) == 1 {
				out = args[0]
			}

			ctx, cancel := timeouts.WithTimeout(cmd.Context(), timeouts.Batch(), g.log, "cli export")
			defer cancel()
			db, err := g.connect(ctx)
			if err != nil {
				return err
			}

			records, err := registrantstore.New(db, g.log).Find(ctx, registrantstore.Filter{MinAge: rules.MinAge}, registrantstore.OrderNewest)
			if err != nil {
				return err
			}
			data, summary, err := xlsxutil.BuildExport(records, xlsxutil.ExportOptions{
				EventName: env("event_name", rules.EventName),
				Creator:   "camphubctl",
				Now:       now,
			})
			if errors.Is(err, xlsxutil.ErrNoRecords) {
				fmt.Fprintln(cmd.OutOrStdout(), xlsxutil.NoRecordsMessage)
				return nil
			}
			if err != nil {
				return err
			}
			if err := writeFile(out, data, force); err != nil {
				return err
			}

			g.audit(db).ParticipantsExported(ctx, nil, primitive.NilObjectID, len(records), len(summary.Sheets))
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Wrote %s\n", out)
			for _, s := range summary.Sheets {
				fmt.Fprintf(w, "  %-18s %d\n", s.Name, s.Rows)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}
