package privacy

import (
	"reflect"
	"strings"
	"testing"

	"docsmith/app/model"
	"docsmith/app/service/evidence"
)

func testProfile() *model.RepoProfile {
	return &model.RepoProfile{
		RepoName: "shop",
		FileTree: []string{
			"services/api/main.go",
			"services/worker/main.go",
			"docker-compose.yml",
			"README.md",
		},
		Languages: []string{"Go"},
	}
}

func TestSanitizeProfileStrict(t *testing.T) {
	guard := NewGuard(ModeStrict)
	profile := testProfile()

	sanitized := guard.SanitizeProfile(profile)

	if !reflect.DeepEqual(sanitized.FileTree, []string{"services/"}) {
		t.Errorf("strict file tree = %v, want top-level dirs only", sanitized.FileTree)
	}
	if len(profile.FileTree) != 4 {
		t.Error("input profile was mutated")
	}
}

func TestSanitizeProfileStandard(t *testing.T) {
	guard := NewGuard(ModeStandard)
	profile := testProfile()

	sanitized := guard.SanitizeProfile(profile)

	if !reflect.DeepEqual(sanitized.FileTree, profile.FileTree) {
		t.Errorf("standard mode changed the file tree: %v", sanitized.FileTree)
	}
	if &sanitized.FileTree[0] == &profile.FileTree[0] {
		t.Error("standard mode shares the input slice")
	}
}

func TestSanitizeProfilePermissive(t *testing.T) {
	guard := NewGuard(ModePermissive)
	profile := testProfile()

	if got := guard.SanitizeProfile(profile); got != profile {
		t.Error("permissive mode should pass the profile through")
	}
}

func TestSanitizeEvidence(t *testing.T) {
	pointer := evidence.NewPointer(evidence.PointerCodeSnippet, "main.go",
		strings.Repeat("line\n", 30))

	strict := NewGuard(ModeStrict).SanitizeEvidence(pointer)
	if strict.Snippet != redactedSnippet {
		t.Errorf("strict snippet = %q, want redaction marker", strict.Snippet)
	}

	standard := NewGuard(ModeStandard).SanitizeEvidence(pointer)
	if !strings.HasSuffix(standard.Snippet, truncationMarker) {
		t.Errorf("standard snippet not truncated: %q", standard.Snippet)
	}
	if lines := strings.Split(standard.Snippet, "\n"); len(lines) > maxSnippetLines+1 {
		t.Errorf("standard snippet has %d lines, want at most %d", len(lines), maxSnippetLines+1)
	}

	if pointer.Snippet == redactedSnippet {
		t.Error("input pointer was mutated")
	}
}

func TestSanitizeContextStrict(t *testing.T) {
	guard := NewGuard(ModeStrict)

	input := map[string]any{
		"query": "search terms",
		"code":  "package main",
		"nested": map[string]any{
			"file_content": "secrets",
			"count":        3,
		},
		"list": []any{map[string]any{"source_code": "x"}},
	}

	out := guard.SanitizeContext(input)

	if out["code"] != redactedValue {
		t.Errorf("code = %v, want redacted", out["code"])
	}
	if out["query"] != "search terms" {
		t.Errorf("query = %v, want untouched", out["query"])
	}
	nested := out["nested"].(map[string]any)
	if nested["file_content"] != redactedValue || nested["count"] != 3 {
		t.Errorf("nested not filtered correctly: %v", nested)
	}
	item := out["list"].([]any)[0].(map[string]any)
	if item["source_code"] != redactedValue {
		t.Errorf("list item not filtered: %v", item)
	}
	if input["code"] != "package main" {
		t.Error("input map was mutated")
	}
}

func TestModeGates(t *testing.T) {
	if NewGuard(ModeStrict).AllowsCode() {
		t.Error("strict mode must not allow code")
	}
	if !NewGuard(ModeStandard).AllowsCode() {
		t.Error("standard mode must allow code")
	}
	if NewGuard(ModeStandard).AllowsFullFiles() {
		t.Error("standard mode must not allow full files")
	}
	if !NewGuard(ModePermissive).AllowsFullFiles() {
		t.Error("permissive mode must allow full files")
	}
	if NewGuard("").Mode() != ModeStandard {
		t.Error("empty mode should default to standard")
	}
}
