package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wesm/chatzip/internal/archive"
)

// Config holds all application configuration.
type Config struct {
	Host              string           `json:"host"`
	Port              int              `json:"port"`
	DataDir           string           `json:"data_dir"`
	DBPath            string           `json:"-"`
	OutDir            string           `json:"out_dir"`
	InboxDir          string           `json:"inbox_dir"`
	ArchivePrefix     string           `json:"archive_prefix"`
	MaxBodyBytes      int64            `json:"max_body_bytes"`
	PostExportCommand string           `json:"post_export_command,omitempty"`
	S3                archive.S3Config `json:"s3"`
	WriteTimeout      time.Duration    `json:"-"`
}

// Default returns a Config with default values.
func Default() (Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Config{}, fmt.Errorf(
			"determining home directory: %w", err,
		)
	}
	dataDir := filepath.Join(home, ".chatzip")
	return Config{
		Host:          "127.0.0.1",
		Port:          8090,
		DataDir:       dataDir,
		DBPath:        filepath.Join(dataDir, "chatzip.db"),
		OutDir:        ".",
		InboxDir:      filepath.Join(dataDir, "inbox"),
		ArchivePrefix: archive.DefaultPrefix,
		MaxBodyBytes:  10 << 20,
		WriteTimeout:  30 * time.Second,
	}, nil
}

// Load builds a Config by layering: defaults < config file < env < flags.
// The provided FlagSet must already be parsed by the caller.
// Only flags that were explicitly set override the lower layers.
func Load(fs *flag.FlagSet) (Config, error) {
	cfg, err := LoadMinimal()
	if err != nil {
		return cfg, err
	}
	applyFlags(&cfg, fs)
	return cfg, nil
}

// LoadMinimal builds a Config from defaults, config file and
// env, without parsing CLI flags. A .env file in the working
// directory is read first; it never overrides variables that
// are already set.
func LoadMinimal() (Config, error) {
	_ = godotenv.Load()

	cfg, err := Default()
	if err != nil {
		return cfg, err
	}
	if v := os.Getenv("CHATZIP_DATA_DIR"); v != "" {
		cfg.DataDir = v
		cfg.InboxDir = filepath.Join(v, "inbox")
	}
	if err := cfg.loadFile(); err != nil {
		return cfg, fmt.Errorf("loading config file: %w", err)
	}
	if err := cfg.loadEnv(); err != nil {
		return cfg, err
	}
	cfg.DBPath = filepath.Join(cfg.DataDir, "chatzip.db")
	return cfg, nil
}

func (c *Config) configPath() string {
	return filepath.Join(c.DataDir, "config.json")
}

func (c *Config) loadFile() error {
	data, err := os.ReadFile(c.configPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var file struct {
		Host              string           `json:"host"`
		Port              int              `json:"port"`
		OutDir            string           `json:"out_dir"`
		InboxDir          string           `json:"inbox_dir"`
		ArchivePrefix     string           `json:"archive_prefix"`
		MaxBodyBytes      int64            `json:"max_body_bytes"`
		PostExportCommand string           `json:"post_export_command"`
		WriteTimeout      string           `json:"write_timeout"`
		S3                archive.S3Config `json:"s3"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}
	if file.Host != "" {
		c.Host = file.Host
	}
	if file.Port > 0 {
		c.Port = file.Port
	}
	if file.OutDir != "" {
		c.OutDir = file.OutDir
	}
	if file.InboxDir != "" {
		c.InboxDir = file.InboxDir
	}
	if file.ArchivePrefix != "" {
		c.ArchivePrefix = file.ArchivePrefix
	}
	if file.MaxBodyBytes > 0 {
		c.MaxBodyBytes = file.MaxBodyBytes
	}
	if file.PostExportCommand != "" {
		c.PostExportCommand = file.PostExportCommand
	}
	if file.WriteTimeout != "" {
		d, err := time.ParseDuration(file.WriteTimeout)
		if err != nil {
			return fmt.Errorf("parsing write_timeout: %w", err)
		}
		c.WriteTimeout = d
	}
	c.S3 = file.S3
	return nil
}

func (c *Config) loadEnv() error {
	if v := os.Getenv("CHATZIP_OUT_DIR"); v != "" {
		c.OutDir = v
	}
	if v := os.Getenv("CHATZIP_INBOX_DIR"); v != "" {
		c.InboxDir = v
	}
	if v := os.Getenv("CHATZIP_S3_ENDPOINT"); v != "" {
		c.S3.Endpoint = v
	}
	if v := os.Getenv("CHATZIP_S3_REGION"); v != "" {
		c.S3.Region = v
	}
	if v := os.Getenv("CHATZIP_S3_BUCKET"); v != "" {
		c.S3.Bucket = v
	}
	if v := os.Getenv("CHATZIP_S3_ACCESS_KEY"); v != "" {
		c.S3.AccessKey = v
	}
	if v := os.Getenv("CHATZIP_S3_SECRET_KEY"); v != "" {
		c.S3.SecretKey = v
	}
	if v := os.Getenv("CHATZIP_S3_USE_SSL"); v != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid CHATZIP_S3_USE_SSL: %w", err)
		}
		c.S3.UseSSL = b
	}
	return nil
}

// ResolveDataDir returns the effective data directory by applying
// defaults and environment overrides, without reading any files.
func ResolveDataDir() (string, error) {
	cfg, err := Default()
	if err != nil {
		return "", err
	}
	if v := os.Getenv("CHATZIP_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	return cfg.DataDir, nil
}

// RegisterServeFlags registers serve-command flags on fs.
// The caller must call fs.Parse before passing fs to Load.
func RegisterServeFlags(fs *flag.FlagSet) {
	fs.String("host", "127.0.0.1", "Host to bind to")
	fs.Int("port", 8090, "Port to listen on")
}

// RegisterOutputFlags registers the flags that control where
// archives are written.
func RegisterOutputFlags(fs *flag.FlagSet) {
	fs.String("out", ".", "Directory to write archives to")
	fs.String("prefix", archive.DefaultPrefix, "Archive name prefix")
}

// RegisterWatchFlags registers watch-command flags on fs.
func RegisterWatchFlags(fs *flag.FlagSet) {
	fs.String("inbox", "", "Directory to watch for transcripts")
	RegisterOutputFlags(fs)
}

// applyFlags copies explicitly-set flags from fs into cfg.
func applyFlags(cfg *Config, fs *flag.FlagSet) {
	if fs == nil {
		return
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.Host = f.Value.String()
		case "port":
			// flag already validated the int; ignore parse error
			cfg.Port, _ = strconv.Atoi(f.Value.String())
		case "out":
			cfg.OutDir = f.Value.String()
		case "prefix":
			cfg.ArchivePrefix = f.Value.String()
		case "inbox":
			cfg.InboxDir = f.Value.String()
		}
	})
}
