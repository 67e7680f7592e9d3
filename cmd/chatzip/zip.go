package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/wesm/chatzip/internal/archive"
	"github.com/wesm/chatzip/internal/config"
	"github.com/wesm/chatzip/internal/db"
	"github.com/wesm/chatzip/internal/export"
	"github.com/wesm/chatzip/internal/extract"
	"github.com/wesm/chatzip/internal/source"
)

const noFilesMessage = "No code fences with filenames or paths found."

// streams are the standard streams a command runs against.
type streams struct {
	In    io.Reader
	InTTY bool
	Out   io.Writer
	Err   io.Writer
}

func stdio() streams {
	return streams{
		In:    os.Stdin,
		InTTY: isTerminal(os.Stdin),
		Out:   os.Stdout,
		Err:   os.Stderr,
	}
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// readClipboard is swapped out in tests.
var readClipboard = source.Clipboard

// ZipOptions holds parsed CLI options for the zip command.
type ZipOptions struct {
	Clipboard bool
	Session   string
	Files     []string
	Messages  source.Options
	DryRun    bool
	S3        bool
}

func parseZipFlags(
	args []string, errOut io.Writer,
) (ZipOptions, *flag.FlagSet, error) {
	fs := flag.NewFlagSet("zip", flag.ContinueOnError)
	fs.SetOutput(errOut)
	config.RegisterOutputFlags(fs)
	clip := fs.Bool("clipboard", false, "Read the system clipboard")
	session := fs.String("session", "",
		"Read an agent session transcript (.jsonl)")
	last := fs.Int("last", 1, "Trailing transcript messages to use")
	role := fs.String("role", "",
		`Only use "user" or "assistant" messages`)
	dryRun := fs.Bool("dry-run", false,
		"List the files without writing an archive")
	useS3 := fs.Bool("s3", false, "Upload to the configured S3 bucket")

	if err := fs.Parse(args); err != nil {
		return ZipOptions{}, fs, err
	}

	r, err := source.ParseRole(*role)
	if err != nil {
		return ZipOptions{}, fs, err
	}
	if *last < 1 {
		return ZipOptions{}, fs, errors.New("-last must be >= 1")
	}

	opts := ZipOptions{
		Clipboard: *clip,
		Session:   *session,
		Files:     fs.Args(),
		Messages:  source.Options{Last: *last, Role: r},
		DryRun:    *dryRun,
		S3:        *useS3,
	}

	inputs := 0
	for _, set := range []bool{
		opts.Clipboard, opts.Session != "", len(opts.Files) > 0,
	} {
		if set {
			inputs++
		}
	}
	if inputs > 1 {
		return ZipOptions{}, fs, errors.New(
			"use only one of -clipboard, -session or file arguments",
		)
	}
	return opts, fs, nil
}

// readInput returns the chat text and a short label for where
// it came from.
func readInput(
	ctx context.Context, opts ZipOptions, s streams,
) (string, string, error) {
	switch {
	case opts.Clipboard:
		text, err := readClipboard(ctx)
		if errors.Is(err, source.ErrClipboardUnavailable) && !s.InTTY {
			fmt.Fprintf(s.Err, "warning: %v; reading stdin\n", err)
			text, err = source.Reader(s.In)
			return text, "stdin", err
		}
		return text, "clipboard", err

	case opts.Session != "":
		text, err := source.Transcript(opts.Session, opts.Messages)
		return text, "session:" + filepath.Base(opts.Session), err

	case len(opts.Files) > 0:
		parts := make([]string, 0, len(opts.Files))
		for _, path := range opts.Files {
			text, err := source.Load(path, opts.Messages)
			if errors.Is(err, source.ErrEmpty) {
				continue
			}
			if err != nil {
				return "", "", err
			}
			parts = append(parts, text)
		}
		if len(parts) == 0 {
			return "", "", source.ErrEmpty
		}
		label := "file:" + filepath.Base(opts.Files[0])
		if n := len(opts.Files); n > 1 {
			label += fmt.Sprintf(" (+%d)", n-1)
		}
		return strings.Join(parts, "\n\n"), label, nil

	case s.InTTY:
		return "", "", errors.New(
			"no input: pass files, -clipboard, -session," +
				" or pipe text on stdin",
		)

	default:
		text, err := source.Reader(s.In)
		return text, "stdin", err
	}
}

// runZip executes the zip command and returns the exit code.
func runZip(args []string, s streams) int {
	opts, fs, err := parseZipFlags(args, s.Err)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(s.Err, "error:", err)
		return 2
	}

	cfg, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(s.Err, "error: loading config:", err)
		return 1
	}

	ctx := context.Background()
	text, label, err := readInput(ctx, opts, s)
	if err != nil {
		fmt.Fprintln(s.Err, "error:", err)
		return 1
	}

	if opts.DryRun {
		return printDryRun(s, text)
	}

	if err := zipText(ctx, cfg, opts, s, label, text); err != nil {
		if errors.Is(err, export.ErrNothingFound) {
			fmt.Fprintln(s.Err, noFilesMessage)
		} else {
			fmt.Fprintln(s.Err, "error:", err)
		}
		return 1
	}
	return 0
}

func printDryRun(s streams, text string) int {
	files, stats := extract.ExtractWithStats(text)
	if len(files) == 0 {
		fmt.Fprintln(s.Err, noFilesMessage)
		return 1
	}
	for _, f := range files {
		fmt.Fprintf(s.Out, "%s (%d bytes)\n", f.Path, len(f.Content))
	}
	fmt.Fprintf(s.Out, "\n%d file(s) from %d candidate(s)",
		len(files), stats.Total())
	if stats.Rejected > 0 {
		fmt.Fprintf(s.Out, ", %d rejected", stats.Rejected)
	}
	fmt.Fprintln(s.Out, "; dry run, no archive written.")
	return 0
}

func zipText(
	ctx context.Context, cfg config.Config, opts ZipOptions,
	s streams, label, text string,
) error {
	sink, err := newSink(cfg, opts.S3)
	if err != nil {
		return err
	}

	exOpts := []export.Option{
		export.WithSink(sink),
		export.WithPrefix(cfg.ArchivePrefix),
		export.WithPostCommand(cfg.PostExportCommand),
	}
	if database, err := db.Open(cfg.DBPath); err != nil {
		fmt.Fprintf(s.Err,
			"warning: export history unavailable: %v\n", err)
	} else {
		defer database.Close()
		exOpts = append(exOpts, export.WithDB(database))
	}

	exporter, err := export.New(exOpts...)
	if err != nil {
		return err
	}
	res, err := exporter.Run(ctx, label, text)
	if res != nil {
		fmt.Fprintf(s.Out, "%s to %s\n",
			archive.Summary(len(res.Files)), res.Location)
		for _, f := range res.Files {
			fmt.Fprintf(s.Out, "  %s\n", f.Path)
		}
	}
	return err
}
