package extract

import "testing"

func TestSanitize(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{"plain file", "main.py", "main.py", true},
		{"nested path", "src/app/main.go", "src/app/main.go", true},
		{"parent traversal", "../../etc/passwd", "etc/passwd", true},
		{"inner traversal", "foo/../bar.txt", "foo/bar.txt", true},
		{"current dir segments", "a/./b//c.txt", "a/b/c.txt", true},
		{"absolute", "/abs/path.go", "abs/path.go", true},
		{"backslashes", `src\main.go`, "src/main.go", true},
		{"unc prefix", `\\server\share\x.txt`, "server/share/x.txt", true},
		{"mixed leading separators", `/\/x`, "x", true},
		{"illegal characters", "weird:name*.txt", "weird-name-.txt", true},
		{"all illegal characters", `a/"q"<>|?.md`, "a/-q-----.md", true},
		{"dots only", "../..", "", false},
		{"single dot", ".", "", false},
		{"empty", "", "", false},
		{"separators only", `///\\`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Sanitize(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("Sanitize(%q) ok = %v, want %v",
					tt.raw, ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q",
					tt.raw, got, tt.want)
			}
		})
	}
}
