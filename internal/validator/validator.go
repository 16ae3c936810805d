// Package validator checks the inputs every action shares: the asset path
// and the presence of required parameters.
package validator

import (
	"path"
	"sort"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/domain"
)

// NormalizePath cleans an asset path to the slash separated, relative form
// the asset stores key on. Empty, absolute and escaping paths are rejected.
func NormalizePath(p string) (string, error) {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return "", domain.NewError(domain.CodeValidation, "path is required", nil)
	}
	if strings.HasPrefix(p, "/") || (len(p) > 1 && p[1] == ':') {
		return "", domain.Errorf(domain.CodeValidation, "path must be relative to the project: %s", p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", domain.Errorf(domain.CodeValidation, "path escapes the project: %s", p)
	}
	return clean, nil
}

// Required fails with a validation error naming every key of keys that is
// absent, null or a blank string in params.
func Required(params map[string]any, keys ...string) error {
	var missing []string
	for _, k := range keys {
		v, ok := params[k]
		if !ok || v == nil {
			missing = append(missing, k)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return domain.Errorf(domain.CodeValidation, "Missing required parameters: %s", strings.Join(missing, ", ")).
		WithDetails(map[string]any{"missing": missing})
}
