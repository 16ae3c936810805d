package tui

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/batch"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return r.Render
}

// IsTerminal reports whether stdout is an interactive terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Status is a one-line colored summary of res.
func Status(res domain.Result) string {
	p := termenv.ColorProfile()
	if res.Success {
		return termenv.String("✔ " + res.Message).Foreground(p.Color("#22c55e")).String()
	}
	return termenv.String(fmt.Sprintf("✘ [%s] %s", res.ErrorCode, res.Message)).Foreground(p.Color("#ef4444")).String()
}

// Markdown describes res as a markdown document. Batch reports become a
// table of operations; other data is shown as JSON.
func Markdown(res domain.Result) string {
	var sb strings.Builder
	if res.Success {
		fmt.Fprintf(&sb, "## ✔ %s\n\n", res.Message)
	} else {
		fmt.Fprintf(&sb, "## ✘ %s\n\n`%s`\n\n", res.Message, res.ErrorCode)
	}
	if res.ID != 0 {
		fmt.Fprintf(&sb, "**id:** %d\n\n", res.ID)
	}

	if rep, ok := res.Data.(batch.Report); ok {
		writeReport(&sb, rep)
	} else if res.Data != nil {
		writeJSON(&sb, "Data", res.Data)
	}
	if res.Details != nil {
		if rep, ok := res.Details.(batch.Report); ok {
			writeReport(&sb, rep)
		} else {
			writeJSON(&sb, "Details", res.Details)
		}
	}
	return sb.String()
}

func writeReport(sb *strings.Builder, rep batch.Report) {
	sb.WriteString("| # | op | ref | id | result |\n|---|---|---|---|---|\n")
	for _, r := range rep.Results {
		result := "ok"
		if !r.Success {
			result = fmt.Sprintf("%s: %s", r.ErrorCode, strings.ReplaceAll(r.Message, "|", "\\|"))
		}
		id := ""
		if r.ID != 0 {
			id = fmt.Sprint(r.ID)
		}
		fmt.Fprintf(sb, "| %d | %s | %s | %s | %s |\n", r.Index, r.Op, r.Ref, id, result)
	}
	fmt.Fprintf(sb, "\n**%d/%d succeeded**\n", rep.Succeeded, rep.TotalOperations)
}

func writeJSON(sb *strings.Builder, title string, v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(sb, "### %s\n\n%v\n\n", title, v)
		return
	}
	fmt.Fprintf(sb, "### %s\n\n```json\n%s\n```\n\n", title, data)
}
