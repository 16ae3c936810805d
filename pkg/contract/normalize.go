// Package contract turns whatever an action returned into the canonical
// Result envelope.
//
// Operations in this module classify their failures at the source with
// domain.ActionError. Classify is kept for untyped errors and legacy map
// results only.
package contract

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/host"
)

// reserved keys of a legacy map result.
var reserved = map[string]bool{
	"success":    true,
	"message":    true,
	"error_code": true,
	"errorCode":  true,
	"data":       true,
	"details":    true,
	"id":         true,
	"version":    true,
}

// Normalize maps raw to a Result. raw may be a domain.Result, an error, a
// legacy map with a success flag, or nil.
func Normalize(raw any, action string) domain.Result {
	switch r := raw.(type) {
	case nil:
		return domain.Fail(domain.CodeUnknown, fmt.Sprintf("Action '%s' returned no result.", action), map[string]any{"action": action})
	case domain.Result:
		return normalizeResult(r)
	case *domain.Result:
		if r == nil {
			return Normalize(nil, action)
		}
		return normalizeResult(*r)
	case error:
		return FromError(r)
	case map[string]any:
		return normalizeMap(r, action)
	}
	return domain.OK("OK", raw)
}

func normalizeResult(r domain.Result) domain.Result {
	if r.Version == "" {
		r.Version = domain.Version
	}
	if r.Success {
		r.ErrorCode = ""
		return r
	}
	if r.ErrorCode == "" {
		r.ErrorCode = Classify(r.Message)
	}
	return r
}

// FromError converts err to a failed Result. Classified errors keep their
// code, host panics become internal_exception, anything else is classified
// from its text.
func FromError(err error) domain.Result {
	var ae *domain.ActionError
	if errors.As(err, &ae) {
		return domain.Fail(ae.Code, ae.Message, ae.Details)
	}
	var ie *host.InvocationError
	if errors.As(err, &ie) {
		return domain.Fail(domain.CodeInternalException, err.Error(), nil)
	}
	switch {
	case errors.Is(err, domain.ErrAssetNotFound):
		return domain.Fail(domain.CodeAssetNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrResolution):
		return domain.Fail(domain.CodeResolution, err.Error(), nil)
	}
	return domain.Fail(Classify(err.Error()), err.Error(), nil)
}

func normalizeMap(m map[string]any, action string) domain.Result {
	msg, _ := m["message"].(string)
	ok, _ := m["success"].(bool)
	if !ok {
		if msg == "" {
			msg = "Operation failed"
		}
		code := domain.ErrorCode(stringField(m, "error_code", "errorCode"))
		if code == "" {
			code = Classify(msg)
		}
		return domain.Fail(code, msg, map[string]any{"action": action, "raw": m})
	}

	if msg == "" {
		msg = "OK"
	}
	data, has := m["data"]
	if !has {
		rest := map[string]any{}
		for k, v := range m {
			if !reserved[k] {
				rest[k] = v
			}
		}
		if len(rest) > 0 {
			data = rest
		}
	}
	res := domain.OK(msg, data)
	res.Details = map[string]any{"action": action}
	if id, ok := intField(m["id"]); ok {
		res.ID = id
	}
	return res
}

// intField accepts ids as Go ints or as integral JSON numbers.
func intField(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}

func stringField(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Classify infers an error code from a free-text message. Checks run in
// order: validation wording, asset not found, not found, reflection.
func Classify(message string) domain.ErrorCode {
	m := strings.ToLower(message)
	switch {
	case strings.Contains(m, "required"):
		return domain.CodeValidation
	case strings.Contains(m, "asset") && strings.Contains(m, "not found"):
		return domain.CodeAssetNotFound
	case strings.Contains(m, "not found"):
		return domain.CodeNotFound
	case strings.Contains(m, "reflection"):
		return domain.CodeResolution
	}
	return domain.CodeUnknown
}
