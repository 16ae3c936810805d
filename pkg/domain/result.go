package domain

// Result is the envelope returned for every action.
type Result struct {
	Success   bool      `json:"success"`
	ErrorCode ErrorCode `json:"error_code"`
	Message   string    `json:"message"`
	// ID is the identity of the node an action produced, zero otherwise.
	ID      int    `json:"id,omitempty"`
	Data    any    `json:"data"`
	Details any    `json:"details"`
	Version string `json:"version"`
}

// OK builds a successful Result.
func OK(message string, data any) Result {
	return Result{Success: true, Message: message, Data: data, Version: Version}
}

// Created builds a successful Result for an action that produced a node.
func Created(id int, message string, data any) Result {
	r := OK(message, data)
	r.ID = id
	return r
}

// Fail builds a failed Result with an explicit classification.
func Fail(code ErrorCode, message string, details any) Result {
	return Result{Success: false, ErrorCode: code, Message: message, Details: details, Version: Version}
}
