package model

// RepoSignal is a detected structural fact about a repository, e.g. the
// presence of a docker-compose file or a terraform directory.
type RepoSignal struct {
	SignalType string         `json:"signal_type"`
	FilePath   string         `json:"file_path,omitempty"`
	Confidence float64        `json:"confidence"`
	Details    map[string]any `json:"details,omitempty"`
}

// RepoProfile is a structural summary of a repository. It contains only
// metadata and detected signals, never raw source code. Privacy-filtered
// copies are derived by the privacy guard, the original is never mutated.
type RepoProfile struct {
	RepoName        string       `json:"repo_name"`
	RepoURL         string       `json:"repo_url,omitempty"`
	Description     string       `json:"description,omitempty"`
	PrimaryLanguage string       `json:"primary_language,omitempty"`
	Languages       []string     `json:"languages,omitempty"`
	FileTree        []string     `json:"file_tree,omitempty"`
	Signals         []RepoSignal `json:"signals,omitempty"`
	ReadmeSummary   string       `json:"readme_summary,omitempty"`
	License         string       `json:"license,omitempty"`
	Topics          []string     `json:"topics,omitempty"`
}

func (p *RepoProfile) HasSignal(signalType string) bool {
	for _, s := range p.Signals {
		if s.SignalType == signalType {
			return true
		}
	}
	return false
}
