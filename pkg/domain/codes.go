package domain

import "encoding/json"

// Version is the schema version tag stamped on every Result.
const Version = "1.0.0"

// ErrorCode classifies a failed Result.
type ErrorCode string

const (
	CodeValidation          ErrorCode = "validation_error"
	CodeNotFound            ErrorCode = "not_found"
	CodeAssetNotFound       ErrorCode = "asset_not_found"
	CodeResolution          ErrorCode = "resolution_error"
	CodeUnsupportedPipeline ErrorCode = "unsupported_pipeline"
	CodeInternalException   ErrorCode = "internal_exception"
	CodeUnknownAction       ErrorCode = "unknown_action"
	CodeMissingAction       ErrorCode = "missing_action"
	CodeUnknown             ErrorCode = "unknown_error"
)

// MarshalJSON encodes the empty code as null.
func (c ErrorCode) MarshalJSON() ([]byte, error) {
	if c == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(c))
}

// Known reports whether c belongs to the taxonomy.
func (c ErrorCode) Known() bool {
	switch c {
	case CodeValidation, CodeNotFound, CodeAssetNotFound, CodeResolution,
		CodeUnsupportedPipeline, CodeInternalException, CodeUnknownAction,
		CodeMissingAction, CodeUnknown:
		return true
	}
	return false
}
