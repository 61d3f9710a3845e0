// Package gitdiff shells out to git to list file-level changes between
// two refs. The pipeline only consumes the shaped output, it never
// parses patch contents.
package gitdiff

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strconv"
	"strings"

	"github.com/samber/oops"
)

type FileChange struct {
	Path      string
	Status    string // added | modified | deleted | renamed
	OldPath   string
	Additions int
	Deletions int
}

type Client struct {
	repoPath string
}

func NewClient(repoPath string) *Client {
	return &Client{repoPath: repoPath}
}

// Changes lists the files changed between baseRef and headRef with
// addition/deletion counts.
func (c *Client) Changes(ctx context.Context, baseRef, headRef string) ([]FileChange, error) {
	out, err := c.git(ctx, "diff", "--name-status", "-M", baseRef, headRef)
	if err != nil {
		return nil, err
	}
	statuses := parseNameStatus(out)

	out, err = c.git(ctx, "diff", "--numstat", "-M", baseRef, headRef)
	if err != nil {
		return nil, err
	}
	counts := parseNumstat(out)

	result := make([]FileChange, 0, len(statuses))
	for _, change := range statuses {
		if stat, ok := counts[change.Path]; ok {
			change.Additions = stat[0]
			change.Deletions = stat[1]
		}
		result = append(result, change)
	}

	return result, nil
}

func parseNameStatus(out []byte) []FileChange {
	var result []FileChange

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
		if len(fields) < 2 {
			continue
		}

		change := FileChange{Path: fields[1]}

		switch fields[0][0] {
		case 'A':
			change.Status = "added"
		case 'D':
			change.Status = "deleted"
		case 'R':
			change.Status = "renamed"
			if len(fields) > 2 {
				change.OldPath = fields[1]
				change.Path = fields[2]
			}
		default:
			change.Status = "modified"
		}

		result = append(result, change)
	}

	return result
}

// parseNumstat keys counts by the post-change path, so the lookup also
// hits for files that numstat prints in rename notation.
func parseNumstat(out []byte) map[string][2]int {
	result := make(map[string][2]int)

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Split(strings.TrimSpace(scanner.Text()), "\t")
		if len(fields) < 3 {
			continue
		}

		// binary files report "-" for both counts
		additions, _ := strconv.Atoi(fields[0])
		deletions, _ := strconv.Atoi(fields[1])
		path := renameTarget(strings.Join(fields[2:], "\t"))
		result[path] = [2]int{additions, deletions}
	}

	return result
}

// renameTarget resolves git's rename notation to the new path. Renames
// appear either as "old => new" or with the common parts outside
// braces, "dir/{old => new}/file".
func renameTarget(path string) string {
	if !strings.Contains(path, " => ") {
		return path
	}

	open := strings.Index(path, "{")
	closing := strings.Index(path, "}")
	if open != -1 && closing > open {
		inner := path[open+1 : closing]
		if _, after, ok := strings.Cut(inner, " => "); ok {
			resolved := path[:open] + after + path[closing+1:]
			return strings.ReplaceAll(resolved, "//", "/")
		}
	}

	_, after, _ := strings.Cut(path, " => ")
	return after
}

func (c *Client) git(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.repoPath

	out, err := cmd.Output()
	if err != nil {
		return nil, oops.With("args", args).Wrapf(err, "git command failed")
	}

	return out, nil
}
