package errors

import (
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ConfigInvalid indicates the configuration failed validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ConfigMissing indicates no config file was found where one is required
	ConfigMissing ErrorCode = "CONFIG_MISSING"
	// SourceRootMissing indicates the configured source root does not exist
	SourceRootMissing ErrorCode = "SOURCE_ROOT_MISSING"
	// ParserUnavailable indicates no syntax parser could be constructed
	ParserUnavailable ErrorCode = "PARSER_UNAVAILABLE"
	// ScipLoadFailed indicates a SCIP index could not be read or decoded
	ScipLoadFailed ErrorCode = "SCIP_LOAD_FAILED"
	// HookFailed indicates git hook installation or removal failed
	HookFailed ErrorCode = "HOOK_FAILED"
	// ExportFailed indicates the archive export could not be written
	ExportFailed ErrorCode = "EXPORT_FAILED"
	// HistoryUnavailable indicates the run-history database could not be opened
	HistoryUnavailable ErrorCode = "HISTORY_UNAVAILABLE"
	// OutputWriteFailed indicates a rendered document could not be written
	OutputWriteFailed ErrorCode = "OUTPUT_WRITE_FAILED"
	// RunInProgress indicates another process holds the project's run lock
	RunInProgress ErrorCode = "RUN_IN_PROGRESS"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// OpenDocs suggests opening documentation
	OpenDocs FixActionType = "open-docs"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url,omitempty"`
}

// MapError represents a repomap error with code, message, and suggestions
type MapError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new MapError with suggested fixes looked up by code.
func New(code ErrorCode, message string, cause error) *MapError {
	return &MapError{
		Code:           code,
		Message:        message,
		cause:          cause,
		SuggestedFixes: GetSuggestedFixes(code),
	}
}

// Error implements the error interface
func (e *MapError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *MapError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *MapError) WithDetails(details interface{}) *MapError {
	e.Details = details
	return e
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	ConfigMissing: {
		{
			Type:        RunCommand,
			Command:     "repomap init",
			Safe:        true,
			Description: "Create a default configuration for this project",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "repomap init --force",
			Safe:        false,
			Description: "Regenerate the configuration from a preset",
		},
	},
	SourceRootMissing: {
		{
			Type:        RunCommand,
			Command:     "repomap generate --source <dir>",
			Safe:        true,
			Description: "Point the run at an existing source directory",
		},
	},
	HistoryUnavailable: {
		{
			Type:        RunCommand,
			Command:     "repomap status",
			Safe:        true,
			Description: "Check the state of the .repomap directory",
		},
	},
	RunInProgress: {
		{
			Type:        RunCommand,
			Command:     "repomap status",
			Safe:        true,
			Description: "See which run holds the lock, or remove .repomap/run.lock if it is stale",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
