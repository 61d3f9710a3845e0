// Package privacy gates what repository data may reach the generative
// model. The mode is fixed at construction, every sanitiser returns a
// fresh structure and never mutates its input.
package privacy

import (
	"sort"
	"strings"

	"docsmith/app/config"
	"docsmith/app/model"
	"docsmith/app/service/evidence"

	"github.com/samber/do"
)

type Mode string

const (
	ModeStrict     Mode = "strict"
	ModeStandard   Mode = "standard"
	ModePermissive Mode = "permissive"
)

const (
	redactedSnippet  = "[code redacted]"
	redactedValue    = "[redacted]"
	truncationMarker = "[truncated]"
	maxSnippetLines  = 20
)

var bannedKeys = map[string]bool{
	"code":         true,
	"source_code":  true,
	"raw_content":  true,
	"raw_markdown": true,
	"file_content": true,
}

type Service struct {
	mode Mode
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewGuard(Mode(cfg.Privacy.Mode)), nil
}

func NewGuard(mode Mode) *Service {
	if mode == "" {
		mode = ModeStandard
	}

	return &Service{mode: mode}
}

func (s *Service) Mode() Mode {
	return s.mode
}

// SanitizeProfile returns a privacy-filtered copy of the profile. Strict
// mode collapses the file list to top-level directory names, standard
// passes paths through, permissive returns the input unchanged.
func (s *Service) SanitizeProfile(profile *model.RepoProfile) *model.RepoProfile {
	if s.mode == ModePermissive {
		return profile
	}

	fileTree := append([]string(nil), profile.FileTree...)
	if s.mode == ModeStrict {
		topDirs := make(map[string]bool)
		for _, path := range profile.FileTree {
			if dir, _, ok := strings.Cut(path, "/"); ok {
				topDirs[dir] = true
			}
		}

		fileTree = make([]string, 0, len(topDirs))
		for dir := range topDirs {
			fileTree = append(fileTree, dir+"/")
		}
		sort.Strings(fileTree)
	}

	clone := *profile
	clone.FileTree = fileTree
	clone.Languages = append([]string(nil), profile.Languages...)
	clone.Signals = append([]model.RepoSignal(nil), profile.Signals...)
	clone.Topics = append([]string(nil), profile.Topics...)

	return &clone
}

// SanitizeEvidence returns a privacy-filtered copy of an evidence
// pointer. Strict mode redacts the snippet entirely, standard truncates
// it to a line cap, permissive is a no-op.
func (s *Service) SanitizeEvidence(pointer *evidence.Pointer) *evidence.Pointer {
	if s.mode == ModePermissive {
		return pointer
	}

	snippet := pointer.Snippet
	switch s.mode {
	case ModeStrict:
		if snippet != "" {
			snippet = redactedSnippet
		}
	case ModeStandard:
		lines := strings.Split(snippet, "\n")
		if len(lines) > maxSnippetLines {
			snippet = strings.Join(lines[:maxSnippetLines], "\n") + "\n" + truncationMarker
		}
	}

	clone := *pointer
	clone.Snippet = snippet

	return &clone
}

// SanitizeContext recursively replaces values under code-carrying keys
// with a redaction marker. Only strict mode filters, other modes pass
// the payload through unchanged.
func (s *Service) SanitizeContext(context map[string]any) map[string]any {
	if s.mode != ModeStrict {
		return context
	}

	return stripMap(context)
}

func stripMap(m map[string]any) map[string]any {
	result := make(map[string]any, len(m))
	for key, value := range m {
		if bannedKeys[key] {
			result[key] = redactedValue
			continue
		}
		result[key] = stripValue(value)
	}
	return result
}

func stripValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return stripMap(v)
	case []any:
		result := make([]any, len(v))
		for i, item := range v {
			result[i] = stripValue(item)
		}
		return result
	default:
		return value
	}
}

// AllowsCode reports whether code snippets may reach the model at all.
func (s *Service) AllowsCode() bool {
	return s.mode != ModeStrict
}

// AllowsFullFiles reports whether complete file contents may be sent.
func (s *Service) AllowsFullFiles() bool {
	return s.mode == ModePermissive
}
