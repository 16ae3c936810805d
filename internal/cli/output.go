package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/vfxbridge/internal/presentation/tui"
	"github.com/aretw0/vfxbridge/pkg/domain"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// PrintResult writes res to w. JSON output is the raw envelope; text output
// is rendered markdown on a terminal and plain markdown otherwise.
func PrintResult(w io.Writer, res domain.Result, format string, terminal bool) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case FormatText, "":
		md := tui.Markdown(res)
		if !terminal {
			_, err := io.WriteString(w, md)
			return err
		}
		out, err := tui.NewRenderer()(md)
		if err != nil {
			out = md
		}
		_, err = io.WriteString(w, out)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// ErrActionFailed is returned by commands whose action produced a failed
// envelope, so the process exits non-zero after printing it.
type ErrActionFailed struct {
	Code domain.ErrorCode
}

func (e ErrActionFailed) Error() string {
	return fmt.Sprintf("action failed: %s", e.Code)
}

// Check turns a failed envelope into ErrActionFailed.
func Check(res domain.Result) error {
	if res.Success {
		return nil
	}
	return ErrActionFailed{Code: res.ErrorCode}
}
