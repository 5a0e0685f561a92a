package domain

import "time"

// Format identifies one of the content packages produced per subject.
type Format string

const (
	FormatPost  Format = "post"
	FormatShort Format = "short"
	FormatLong  Format = "long"
)

// PromptCategory selects the kind of media a prompt is written for.
type PromptCategory string

const (
	PromptCategoryImage PromptCategory = "image"
	PromptCategoryVideo PromptCategory = "video"
)

// PromptSpec is a raw prompt awaiting sanitization.
type PromptSpec struct {
	RawText           string
	SubjectName       string
	Category          PromptCategory
	SectionIndex      *int
	RetainSubjectName bool
}

// ScriptSection is one numbered part of a long-form script.
type ScriptSection struct {
	Index int
	Label string
	Body  string
}

// AssetStatus is the final state of a single asset.
type AssetStatus string

const (
	AssetSuccess AssetStatus = "success"
	AssetFailure AssetStatus = "failure"
)

// AssetOutcome records what happened to one named asset of a package.
type AssetOutcome struct {
	Name       string      `json:"name"`
	Kind       string      `json:"kind"`
	Status     AssetStatus `json:"status"`
	ErrorKind  string      `json:"error_kind,omitempty"`
	Error      string      `json:"error,omitempty"`
	PromptPath string      `json:"prompt_path,omitempty"`
	MediaPath  string      `json:"media_path,omitempty"`
	MediaURL   string      `json:"media_url,omitempty"`
}

// PackageResult aggregates the outcome of one format for one subject.
type PackageResult struct {
	Format         Format         `json:"format"`
	Assets         []AssetOutcome `json:"assets"`
	OverallSuccess bool           `json:"overall_success"`
	Stage          string         `json:"stage"`
	Aborted        bool           `json:"aborted"`
	Error          string         `json:"error,omitempty"`
}

// StatusMap indexes asset statuses by name.
func (p PackageResult) StatusMap() map[string]AssetStatus {
	out := make(map[string]AssetStatus, len(p.Assets))
	for _, a := range p.Assets {
		out[a.Name] = a.Status
	}
	return out
}

// Succeeded counts assets whose status is success.
func (p PackageResult) Succeeded() int {
	n := 0
	for _, a := range p.Assets {
		if a.Status == AssetSuccess {
			n++
		}
	}
	return n
}

// RunSummary is the result of processing one subject across all formats.
type RunSummary struct {
	RunID       string          `json:"run_id"`
	Subject     string          `json:"subject"`
	SourceChars int             `json:"source_chars"`
	Packages    []PackageResult `json:"packages"`
	Success     bool            `json:"success"`
	StartedAt   time.Time       `json:"started_at"`
	FinishedAt  time.Time       `json:"finished_at"`
}

// RunStatus enumerates run ledger states.
type RunStatus string

const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is the persisted view of a run.
type RunRecord struct {
	ID        string      `json:"run_id"`
	Subject   string      `json:"subject"`
	Status    RunStatus   `json:"status"`
	Summary   *RunSummary `json:"summary,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
