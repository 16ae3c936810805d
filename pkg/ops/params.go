package ops

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/host"
	"github.com/mitchellh/mapstructure"
)

// Params are the loosely typed parameters of one action.
type Params map[string]any

// Decode copies params into the struct pointed to by out, matching
// mapstructure tags. Numbers, strings and booleans are converted weakly, so
// "12", 12 and 12.0 all decode into an int field. Fields whose key is absent
// or null keep their current value, which callers use for defaults.
func Decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return domain.Errorf(domain.CodeValidation, "Invalid parameters: %v", err).Wrap(err)
	}
	return nil
}

// Raw returns the first non-null value among keys.
func (p Params) Raw(keys ...string) any {
	for _, k := range keys {
		if v, ok := p[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// Has reports whether key is present and not null.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// first returns a when it is not blank, else b.
func first(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

func required(format string, args ...any) error {
	return domain.Errorf(domain.CodeValidation, format, args...)
}

func notFound(format string, args ...any) *domain.ActionError {
	return domain.Errorf(domain.CodeNotFound, format, args...)
}

func internal(err error, format string, args ...any) *domain.ActionError {
	return domain.NewError(domain.CodeInternalException, fmt.Sprintf(format, args...), nil).Wrap(err)
}

// message unwraps host invocation errors to the text the host raised.
func message(err error) string {
	var ie *host.InvocationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ie) && ie.Err != nil:
		return ie.Err.Error()
	case ie != nil && ie.Panic != nil:
		return fmt.Sprint(ie.Panic)
	}
	return err.Error()
}
