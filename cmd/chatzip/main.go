package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wesm/chatzip/internal/archive"
	"github.com/wesm/chatzip/internal/config"
	"github.com/wesm/chatzip/internal/db"
	"github.com/wesm/chatzip/internal/export"
	"github.com/wesm/chatzip/internal/inbox"
	"github.com/wesm/chatzip/internal/server"
	"github.com/wesm/chatzip/internal/source"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

const shutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "zip":
			os.Exit(runZip(os.Args[2:], stdio()))
		case "serve":
			runServe(os.Args[2:])
			return
		case "watch":
			runWatch(os.Args[2:])
			return
		case "history":
			runHistory(os.Args[2:])
			return
		case "prune":
			runPrune(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("chatzip %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	os.Exit(runZip(os.Args[1:], stdio()))
}

func printUsage() {
	fmt.Printf(`chatzip %s - pull files out of chat transcripts into a zip

Finds fenced code blocks labelled with a file path (a path line
above the fence, filename=... in the fence info, or a bare path
after the backticks) and packs them into one archive.

Usage:
  chatzip [zip] [flags] [file...]  Extract from files, stdin, clipboard or a session
  chatzip serve [flags]            Serve the HTTP API
  chatzip watch [flags]            Archive transcripts dropped into the inbox
  chatzip history [flags]          List recent exports
  chatzip prune [flags]            Delete old export history
  chatzip version                  Show version information
  chatzip help                     Show this help

Zip flags:
  -clipboard          Read the system clipboard
  -session path       Read an agent session transcript (.jsonl)
  -last int           Trailing transcript messages to use (default 1)
  -role string        Only use "user" or "assistant" messages
  -dry-run            List the files without writing an archive
  -s3                 Upload to the configured S3 bucket
  -out dir            Directory to write archives to (default ".")
  -prefix string      Archive name prefix (default "chatzip")

Server flags:
  -host string        Host to bind to (default "127.0.0.1")
  -port int           Port to listen on (default 8090)

Watch flags:
  -inbox dir          Directory to watch (default ~/.chatzip/inbox)
  -last, -role, -s3, -out, -prefix as for zip

History flags:
  -limit int          Number of exports to list (default 20)
  -id string          Show the files of one export

Prune flags:
  -before date        Exports created before this date (YYYY-MM-DD)
  -dry-run            Show what would be pruned without deleting
  -yes                Skip confirmation prompt

Environment variables:
  CHATZIP_DATA_DIR        Data directory (database, config)
  CHATZIP_OUT_DIR         Default archive directory
  CHATZIP_INBOX_DIR       Inbox directory for watch
  CHATZIP_S3_ENDPOINT     S3 endpoint (host:port)
  CHATZIP_S3_BUCKET       S3 bucket
  CHATZIP_S3_ACCESS_KEY   S3 access key
  CHATZIP_S3_SECRET_KEY   S3 secret key
  CHATZIP_S3_REGION       S3 region
  CHATZIP_S3_USE_SSL      Use TLS for S3 (true/false)

Data is stored in ~/.chatzip/ by default.
`, version)
}

func mustLoadConfig(
	name string, args []string, register func(*flag.FlagSet),
) (config.Config, *flag.FlagSet) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(),
			"Usage: chatzip %s [flags]\n\nFlags:\n", name)
		fs.PrintDefaults()
	}
	register(fs)
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("creating data dir: %v", err)
	}
	return cfg, fs
}

func mustOpenDB(cfg config.Config) *db.DB {
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	return database
}

// newSink picks the S3 bucket when useS3 is set and the local
// output directory otherwise.
func newSink(cfg config.Config, useS3 bool) (archive.Sink, error) {
	if !useS3 {
		return archive.NewDirSink(cfg.OutDir), nil
	}
	if !cfg.S3.Enabled() {
		return nil, errors.New(
			"s3 is not configured: set CHATZIP_S3_ENDPOINT and" +
				" CHATZIP_S3_BUCKET or the s3 block in config.json",
		)
	}
	return archive.NewS3Sink(cfg.S3)
}

func runServe(args []string) {
	cfg, _ := mustLoadConfig("serve", args, config.RegisterServeFlags)
	database := mustOpenDB(cfg)
	defer database.Close()

	port := server.FindAvailablePort(cfg.Host, cfg.Port)
	if port != cfg.Port {
		fmt.Printf("Port %d in use, using %d\n", cfg.Port, port)
	}
	cfg.Port = port

	srv, err := server.New(cfg, database,
		server.WithVersion(server.VersionInfo{
			Version:   version,
			Commit:    commit,
			BuildDate: buildDate,
		}),
	)
	if err != nil {
		log.Fatalf("creating server: %v", err)
	}

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(), shutdownTimeout,
		)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}
}

func runWatch(args []string) {
	var (
		last  *int
		role  *string
		useS3 *bool
	)
	cfg, _ := mustLoadConfig("watch", args, func(fs *flag.FlagSet) {
		config.RegisterWatchFlags(fs)
		last = fs.Int("last", 1, "Trailing transcript messages to use")
		role = fs.String("role", "", `Only use "user" or "assistant" messages`)
		useS3 = fs.Bool("s3", false, "Upload to the configured S3 bucket")
	})

	r, err := source.ParseRole(*role)
	if err != nil {
		log.Fatalf("invalid -role: %v", err)
	}
	sink, err := newSink(cfg, *useS3)
	if err != nil {
		log.Fatalf("%v", err)
	}

	database := mustOpenDB(cfg)
	defer database.Close()

	exporter, err := export.New(
		export.WithDB(database),
		export.WithSink(sink),
		export.WithPrefix(cfg.ArchivePrefix),
		export.WithPostCommand(cfg.PostExportCommand),
	)
	if err != nil {
		log.Fatalf("%v", err)
	}

	in, err := inbox.Open(
		cfg.DataDir, cfg.InboxDir, exporter,
		source.Options{Last: *last, Role: r},
		inbox.DefaultDebounce,
	)
	if err != nil {
		log.Fatalf("opening inbox: %v", err)
	}
	defer in.Close()

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM,
	)
	defer stop()

	in.Start()
	fmt.Printf("chatzip %s watching %s\n", version, cfg.InboxDir)
	<-ctx.Done()
}
