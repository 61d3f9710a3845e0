package gitdiff

import "testing"

func TestParseNameStatus(t *testing.T) {
	out := []byte("A\tdocs/guide.md\n" +
		"M\tREADME.md\n" +
		"D\tlegacy/old.go\n" +
		"R100\tapp/old.go\tapp/new.go\n")

	changes := parseNameStatus(out)
	if len(changes) != 4 {
		t.Fatalf("changes = %d, want 4", len(changes))
	}

	want := []FileChange{
		{Path: "docs/guide.md", Status: "added"},
		{Path: "README.md", Status: "modified"},
		{Path: "legacy/old.go", Status: "deleted"},
		{Path: "app/new.go", Status: "renamed", OldPath: "app/old.go"},
	}
	for i, w := range want {
		if changes[i] != w {
			t.Errorf("changes[%d] = %+v, want %+v", i, changes[i], w)
		}
	}
}

func TestParseNumstatRenameNotation(t *testing.T) {
	out := []byte("3\t1\tREADME.md\n" +
		"5\t2\tapp/{old => new}/main.go\n" +
		"1\t0\told.go => new.go\n" +
		"-\t-\tassets/logo.png\n")

	counts := parseNumstat(out)

	tests := []struct {
		path string
		want [2]int
	}{
		{"README.md", [2]int{3, 1}},
		{"app/new/main.go", [2]int{5, 2}},
		{"new.go", [2]int{1, 0}},
		{"assets/logo.png", [2]int{0, 0}},
	}
	for _, tt := range tests {
		got, ok := counts[tt.path]
		if !ok {
			t.Errorf("path %s missing from counts: %v", tt.path, counts)
			continue
		}
		if got != tt.want {
			t.Errorf("counts[%s] = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestRenameTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"README.md", "README.md"},
		{"old.go => new.go", "new.go"},
		{"app/{old => new}/main.go", "app/new/main.go"},
		{"app/{ => internal}/main.go", "app/internal/main.go"},
		{"app/{legacy => }/main.go", "app/main.go"},
	}
	for _, tt := range tests {
		if got := renameTarget(tt.in); got != tt.want {
			t.Errorf("renameTarget(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
