// Package export runs the extract, archive, deliver and record
// steps shared by the CLI, the HTTP server and the inbox watcher.
package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"slices"
	"time"

	"github.com/google/shlex"

	"github.com/wesm/chatzip/internal/archive"
	"github.com/wesm/chatzip/internal/db"
	"github.com/wesm/chatzip/internal/extract"
)

// ErrNothingFound is returned when the text holds no fenced
// block with a usable path.
var ErrNothingFound = errors.New(
	"no code fences with filenames or paths found",
)

// Result describes one finished export.
type Result struct {
	Files    []extract.FileEntry
	Stats    extract.Stats
	Name     string
	Data     []byte
	Location string
	Export   *db.Export
}

// Exporter turns chat text into a delivered, recorded archive.
type Exporter struct {
	db          *db.DB
	sink        archive.Sink
	prefix      string
	postCommand []string
	now         func() time.Time
}

// Option configures an Exporter.
type Option func(*Exporter) error

// WithDB records every export in database.
func WithDB(database *db.DB) Option {
	return func(e *Exporter) error {
		e.db = database
		return nil
	}
}

// WithSink delivers archives to sink. Without a sink the
// archive bytes are only returned in the Result.
func WithSink(sink archive.Sink) Option {
	return func(e *Exporter) error {
		e.sink = sink
		return nil
	}
}

// WithPrefix sets the archive name prefix.
func WithPrefix(prefix string) Option {
	return func(e *Exporter) error {
		e.prefix = prefix
		return nil
	}
}

// WithPostCommand runs cmdline after each delivered archive,
// with the archive location appended as the last argument.
func WithPostCommand(cmdline string) Option {
	return func(e *Exporter) error {
		if cmdline == "" {
			return nil
		}
		args, err := shlex.Split(cmdline)
		if err != nil {
			return fmt.Errorf("parsing post-export command: %w", err)
		}
		if len(args) == 0 {
			return nil
		}
		e.postCommand = args
		return nil
	}
}

// WithClock overrides the time source used for archive names
// and timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) error {
		if now != nil {
			e.now = now
		}
		return nil
	}
}

// New creates an Exporter.
func New(opts ...Option) (*Exporter, error) {
	e := &Exporter{
		prefix: archive.DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Run extracts files from text and archives them. source is a
// short description of where the text came from, kept in the
// export history.
func (e *Exporter) Run(
	ctx context.Context, source, text string,
) (*Result, error) {
	files, stats := extract.ExtractWithStats(text)
	if len(files) == 0 {
		return nil, ErrNothingFound
	}

	now := e.now()
	data, err := archive.Build(files, now)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Files: files,
		Stats: stats,
		Name:  archive.Filename(e.prefix, now),
		Data:  data,
	}

	if e.sink != nil {
		res.Location, err = e.sink.Put(ctx, res.Name, data)
		if err != nil {
			return nil, fmt.Errorf("delivering %s: %w", res.Name, err)
		}
	}

	if e.db != nil {
		res.Export = newExport(source, now, res)
		if err := e.db.RecordExport(ctx, res.Export); err != nil {
			// The archive is already delivered.
			log.Printf("export: recording history: %v", err)
		}
	}

	if len(e.postCommand) > 0 && res.Location != "" {
		if err := e.runPostCommand(ctx, res.Location); err != nil {
			return res, err
		}
	}
	return res, nil
}

func newExport(
	source string, at time.Time, res *Result,
) *db.Export {
	ex := &db.Export{
		CreatedAt:      at,
		Source:         source,
		ArchiveName:    res.Name,
		Location:       res.Location,
		FileCount:      len(res.Files),
		CandidateCount: res.Stats.Total(),
		RejectedCount:  res.Stats.Rejected,
		Files:          make([]db.ExportFile, len(res.Files)),
	}
	for i, f := range res.Files {
		ex.Files[i] = db.ExportFile{
			Path: f.Path,
			Size: len(f.Content),
		}
	}
	return ex
}

func (e *Exporter) runPostCommand(
	ctx context.Context, location string,
) error {
	args := slices.Concat(e.postCommand[1:], []string{location})
	cmd := exec.CommandContext(ctx, e.postCommand[0], args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf(
			"post-export command %s: %w", e.postCommand[0], err,
		)
	}
	return nil
}
