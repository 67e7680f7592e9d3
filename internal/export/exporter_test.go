package export

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wesm/chatzip/internal/archive"
	"github.com/wesm/chatzip/internal/db"
	"github.com/wesm/chatzip/internal/testjsonl"
)

var fixedTime = time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

func openDB(t *testing.T) *db.DB {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func sampleText() string {
	return "Here you go:\n\n" +
		testjsonl.FencedFile("main.go", "go", "package main") +
		"\n" +
		testjsonl.FencedFile("README.md", "", "# demo")
}

func zipNames(t *testing.T, data []byte) []string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	names := make([]string, len(zr.File))
	for i, f := range zr.File {
		names[i] = f.Name
	}
	return names
}

func TestRunNothingFound(t *testing.T) {
	e, err := New(WithClock(fixedClock))
	require.NoError(t, err)

	_, err = e.Run(context.Background(), "stdin", "no fences here")
	assert.ErrorIs(t, err, ErrNothingFound)
}

func TestRunWithoutSink(t *testing.T) {
	e, err := New(WithClock(fixedClock), WithPrefix("demo"))
	require.NoError(t, err)

	res, err := e.Run(context.Background(), "stdin", sampleText())
	require.NoError(t, err)

	assert.Equal(t, "demo-2024-03-09-14-05.zip", res.Name)
	assert.Empty(t, res.Location)
	assert.Nil(t, res.Export)
	assert.Equal(t, []string{"main.go", "README.md"}, zipNames(t, res.Data))
	assert.Equal(t, 2, res.Stats.Files)
}

func TestRunDeliversAndRecords(t *testing.T) {
	out := t.TempDir()
	d := openDB(t)
	e, err := New(
		WithClock(fixedClock),
		WithSink(archive.NewDirSink(out)),
		WithDB(d),
	)
	require.NoError(t, err)

	res, err := e.Run(context.Background(), "clipboard", sampleText())
	require.NoError(t, err)

	want := filepath.Join(out, "chatzip-2024-03-09-14-05.zip")
	assert.Equal(t, want, res.Location)
	data, err := os.ReadFile(want)
	require.NoError(t, err)
	assert.Equal(t, res.Data, data)

	require.NotNil(t, res.Export)
	got, err := d.GetExport(context.Background(), res.Export.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "clipboard", got.Source)
	assert.Equal(t, want, got.Location)
	assert.Equal(t, 2, got.FileCount)
	assert.Equal(t, []db.ExportFile{
		{Path: "main.go", Size: len("package main")},
		{Path: "README.md", Size: len("# demo")},
	}, got.Files)
}

func TestRunTwiceSameMinute(t *testing.T) {
	out := t.TempDir()
	e, err := New(
		WithClock(fixedClock),
		WithSink(archive.NewDirSink(out)),
	)
	require.NoError(t, err)

	first, err := e.Run(context.Background(), "stdin", sampleText())
	require.NoError(t, err)
	second, err := e.Run(context.Background(), "stdin", sampleText())
	require.NoError(t, err)

	assert.NotEqual(t, first.Location, second.Location)
	assert.Equal(t,
		filepath.Join(out, "chatzip-2024-03-09-14-05-2.zip"),
		second.Location,
	)
}

func TestWithPostCommand(t *testing.T) {
	t.Run("invalid quoting", func(t *testing.T) {
		_, err := New(WithPostCommand(`echo "unterminated`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "post-export command")
	})

	t.Run("blank is ignored", func(t *testing.T) {
		e, err := New(WithPostCommand("   "))
		require.NoError(t, err)
		assert.Empty(t, e.postCommand)
	})

	t.Run("runs with location", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("uses cp")
		}
		out := t.TempDir()
		copyTo := filepath.Join(t.TempDir(), "copy.zip")
		e, err := New(
			WithClock(fixedClock),
			WithSink(archive.NewDirSink(out)),
			WithPostCommand("sh -c 'cp \"$0\" "+copyTo+"'"),
		)
		require.NoError(t, err)

		res, err := e.Run(context.Background(), "stdin", sampleText())
		require.NoError(t, err)
		data, err := os.ReadFile(copyTo)
		require.NoError(t, err)
		assert.Equal(t, res.Data, data)
	})

	t.Run("failure is reported", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("uses false")
		}
		e, err := New(
			WithClock(fixedClock),
			WithSink(archive.NewDirSink(t.TempDir())),
			WithPostCommand("false"),
		)
		require.NoError(t, err)

		res, err := e.Run(context.Background(), "stdin", sampleText())
		require.Error(t, err)
		require.NotNil(t, res, "archive is still delivered")
		assert.NotEmpty(t, res.Location)
	})
}
