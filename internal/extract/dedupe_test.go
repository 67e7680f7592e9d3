package extract

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func assignAll(paths ...string) []string {
	l := newLedger()
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		name, _ := l.assign(p)
		out = append(out, name)
	}
	return out
}

func TestLedgerAssign(t *testing.T) {
	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			"distinct paths unchanged",
			[]string{"a.txt", "b.txt", "dir/a.txt"},
			[]string{"a.txt", "b.txt", "dir/a.txt"},
		},
		{
			"three collisions",
			[]string{"a/b.txt", "a/b.txt", "a/b.txt"},
			[]string{"a/b.txt", "a/b-2.txt", "a/b-3.txt"},
		},
		{
			"skips suffix already taken",
			[]string{"a.txt", "a-2.txt", "a.txt", "a.txt"},
			[]string{"a.txt", "a-2.txt", "a-3.txt", "a-4.txt"},
		},
		{
			"generated name seen again",
			[]string{"a.txt", "a.txt", "a-2.txt"},
			[]string{"a.txt", "a-2.txt", "a-2-2.txt"},
		},
		{
			"no extension",
			[]string{"Makefile", "Makefile"},
			[]string{"Makefile", "Makefile-2"},
		},
		{
			"dotfile",
			[]string{".env", ".env"},
			[]string{".env", ".env-2"},
		},
		{
			"dot in directory only",
			[]string{"v1.2/README", "v1.2/README"},
			[]string{"v1.2/README", "v1.2/README-2"},
		},
		{
			"last extension only",
			[]string{"archive.tar.gz", "archive.tar.gz"},
			[]string{"archive.tar.gz", "archive.tar-2.gz"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := assignAll(tt.paths...)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("assign mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLedgerAssignReportsRename(t *testing.T) {
	l := newLedger()
	if _, renamed := l.assign("x.go"); renamed {
		t.Error("first assign reported rename")
	}
	if _, renamed := l.assign("x.go"); !renamed {
		t.Error("second assign did not report rename")
	}
}

func TestSplitExt(t *testing.T) {
	tests := []struct {
		path, base, ext string
	}{
		{"a.txt", "a", ".txt"},
		{"dir/a.txt", "dir/a", ".txt"},
		{"dir.d/a", "dir.d/a", ""},
		{".gitignore", ".gitignore", ""},
		{"dir/.gitignore", "dir/.gitignore", ""},
		{"a.", "a", "."},
	}
	for _, tt := range tests {
		base, ext := splitExt(tt.path)
		if base != tt.base || ext != tt.ext {
			t.Errorf("splitExt(%q) = (%q, %q), want (%q, %q)",
				tt.path, base, ext, tt.base, tt.ext)
		}
	}
}
