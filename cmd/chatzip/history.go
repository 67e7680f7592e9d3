package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/wesm/chatzip/internal/config"
	"github.com/wesm/chatzip/internal/db"
)

const historyTimeFormat = "2006-01-02 15:04"

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable lays out rows under headers. Rounded box drawing is
// used only when styled is set.
func renderTable(
	headers []string, rows [][]string,
	aligns []columnAlignment, styled bool,
) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if styled {
		tw.SetStyle(table.StyleRounded)
	}

	header := make(table.Row, columns)
	for i := range columns {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range columns {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func shouldStyle(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isTerminal(f)
}

func renderExports(exports []db.Export, styled bool) string {
	rows := make([][]string, len(exports))
	for i, e := range exports {
		rows[i] = []string{
			e.ID[:min(8, len(e.ID))],
			e.CreatedAt.Local().Format(historyTimeFormat),
			e.Source,
			strconv.Itoa(e.FileCount),
			e.Location,
		}
	}
	return renderTable(
		[]string{"ID", "Created", "Source", "Files", "Location"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
		styled,
	)
}

func renderExportFiles(e *db.Export, styled bool) string {
	rows := make([][]string, len(e.Files))
	for i, f := range e.Files {
		rows[i] = []string{f.Path, strconv.Itoa(f.Size)}
	}
	return renderTable(
		[]string{"Path", "Bytes"}, rows,
		[]columnAlignment{alignLeft, alignRight},
		styled,
	)
}

// HistoryOptions holds parsed CLI options for the history
// command.
type HistoryOptions struct {
	Limit int
	ID    string
}

func parseHistoryFlags(args []string) (HistoryOptions, error) {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	limit := fs.Int("limit", 20, "Number of exports to list")
	id := fs.String("id", "", "Show the files of one export")
	if err := fs.Parse(args); err != nil {
		return HistoryOptions{}, err
	}
	if *limit < 1 {
		return HistoryOptions{}, fmt.Errorf("limit must be >= 1")
	}
	return HistoryOptions{Limit: *limit, ID: *id}, nil
}

// showHistory writes the export list, or one export's files
// when opts.ID is set.
func showHistory(
	ctx context.Context, database *db.DB,
	opts HistoryOptions, w io.Writer, styled bool,
) error {
	if opts.ID != "" {
		e, err := database.GetExport(ctx, opts.ID)
		if err != nil {
			return err
		}
		if e == nil {
			return fmt.Errorf("export %s not found", opts.ID)
		}
		fmt.Fprintf(w, "%s  %s  %s\n%s\n",
			e.ID, e.CreatedAt.Local().Format(time.RFC3339),
			e.Location, renderExportFiles(e, styled))
		return nil
	}

	exports, err := database.ListExports(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(exports) == 0 {
		fmt.Fprintln(w, "No exports yet.")
		return nil
	}
	fmt.Fprintln(w, renderExports(exports, styled))
	return nil
}

func runHistory(args []string) {
	opts, err := parseHistoryFlags(args)
	if err != nil {
		exitOnFlagError(err)
	}

	cfg, err := config.LoadMinimal()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	database := mustOpenDB(cfg)
	defer database.Close()

	err = showHistory(context.Background(), database, opts,
		os.Stdout, shouldStyle(os.Stdout))
	if err != nil {
		log.Fatalf("history: %v", err)
	}
}
