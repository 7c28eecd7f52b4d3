package docgen

// Status is the outcome of one documentation task.
type Status string

const (
	StatusWritten             Status = "written"
	StatusSkippedPrecondition Status = "skipped_precondition"
	StatusSkippedBudget       Status = "skipped_budget"
	StatusFailed              Status = "failed"
)

// Result is the outcome of one task. Content is set only when written,
// Error only when failed.
type Result struct {
	Kind    ArtifactKind `json:"artifact" yaml:"artifact"`
	Status  Status       `json:"status" yaml:"status"`
	Content string       `json:"content,omitempty" yaml:"content,omitempty"`
	Error   string       `json:"error,omitempty" yaml:"error,omitempty"`
	// ErrorKind is the APIError kind when the model call failed.
	ErrorKind string `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	// Path is where the content was persisted, relative to the repository root.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
	// Reason explains a skip.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// ErrorKindPrecondition marks a failure to evaluate a precondition; no call
// was made for such a result.
const ErrorKindPrecondition = "precondition"
