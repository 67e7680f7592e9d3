package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/wesm/chatzip/internal/config"
	"github.com/wesm/chatzip/internal/db"
)

// PruneConfig holds parsed CLI options for the prune command.
type PruneConfig struct {
	Before time.Time
	DryRun bool
	Yes    bool
}

func parsePruneFlags(args []string) (PruneConfig, error) {
	fs := flag.NewFlagSet("prune", flag.ContinueOnError)
	before := fs.String(
		"before", "",
		"Exports created before this date (YYYY-MM-DD)",
	)
	dryRun := fs.Bool(
		"dry-run", false,
		"Show what would be pruned without deleting",
	)
	yes := fs.Bool("yes", false, "Skip confirmation prompt")

	if err := fs.Parse(args); err != nil {
		return PruneConfig{}, err
	}
	if *before == "" {
		return PruneConfig{}, errors.New("-before is required")
	}
	t, err := time.ParseInLocation("2006-01-02", *before, time.Local)
	if err != nil {
		return PruneConfig{}, fmt.Errorf(
			"invalid -before %q: want YYYY-MM-DD", *before,
		)
	}
	return PruneConfig{Before: t, DryRun: *dryRun, Yes: *yes}, nil
}

// Pruner executes the prune workflow against a database.
type Pruner struct {
	DB  *db.DB
	Out io.Writer
	In  io.Reader
}

// Prune deletes export history older than cfg.Before. Archives
// themselves are left in place.
func (p *Pruner) Prune(ctx context.Context, cfg PruneConfig) error {
	n, err := p.DB.CountExportsBefore(ctx, cfg.Before)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Fprintln(p.Out, "No exports match.")
		return nil
	}

	fmt.Fprintf(p.Out, "Found %d exports before %s\n",
		n, cfg.Before.Format("2006-01-02"))

	if cfg.DryRun {
		fmt.Fprintln(p.Out, "\nDry run: no changes made.")
		return nil
	}

	if !cfg.Yes {
		msg := fmt.Sprintf("\nDelete %d exports?", n)
		if !confirm(p.In, p.Out, msg) {
			fmt.Fprintln(p.Out, "Aborted.")
			return nil
		}
	}

	deleted, err := p.DB.DeleteExportsBefore(ctx, cfg.Before)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.Out, "Deleted %d exports\n", deleted)
	return nil
}

func confirm(r io.Reader, w io.Writer, msg string) bool {
	fmt.Fprintf(w, "%s [y/N] ", msg)
	scanner := bufio.NewScanner(r)
	scanner.Scan()
	ans := strings.ToLower(strings.TrimSpace(scanner.Text()))
	return ans == "y" || ans == "yes"
}

// exitOnFlagError exits 0 for -h and 1 for anything else.
func exitOnFlagError(err error) {
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func runPrune(args []string) {
	cfg, err := parsePruneFlags(args)
	if err != nil {
		exitOnFlagError(err)
	}

	appCfg, err := config.LoadMinimal()
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	database := mustOpenDB(appCfg)
	defer database.Close()

	pruner := &Pruner{
		DB:  database,
		Out: os.Stdout,
		In:  os.Stdin,
	}
	if err := pruner.Prune(context.Background(), cfg); err != nil {
		log.Fatalf("prune: %v", err)
	}
}
