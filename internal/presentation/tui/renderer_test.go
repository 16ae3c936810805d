package tui_test

import (
	"bytes"
	"testing"

	"github.com/aretw0/vfxbridge/internal/presentation/tui"
	"github.com/aretw0/vfxbridge/pkg/batch"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestMarkdown_Report(t *testing.T) {
	rep := batch.Report{
		TotalOperations: 2,
		Succeeded:       1,
		Failed:          1,
		Results: []batch.OpResult{
			{Index: 0, Op: "add_node", Ref: "spawn", ID: 7, Success: true},
			{Index: 1, Op: "set_capacity", ErrorCode: domain.CodeValidation, Message: "unresolved reference $x"},
		},
	}
	md := tui.Markdown(domain.OK(rep.Message(), rep))

	assert.Contains(t, md, "## ✔ Batch complete: 1/2 operations succeeded")
	assert.Contains(t, md, "| 0 | add_node | spawn | 7 | ok |")
	assert.Contains(t, md, "| 1 | set_capacity |  |  | validation_error: unresolved reference $x |")
	assert.Contains(t, md, "**1/2 succeeded**")
}

func TestMarkdown_Failure(t *testing.T) {
	md := tui.Markdown(domain.Fail(domain.CodeNotFound, "Node 9 not found", map[string]any{"id": 9}))
	assert.Contains(t, md, "## ✘ Node 9 not found")
	assert.Contains(t, md, "`not_found`")
	assert.Contains(t, md, "\"id\": 9")
}

func TestStatus(t *testing.T) {
	assert.Contains(t, tui.Status(domain.OK("Added Add", nil)), "Added Add")
	assert.Contains(t, tui.Status(domain.Fail(domain.CodeValidation, "bad", nil)), "[validation_error] bad")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "version 1.2.3")
}

func TestNewRenderer(t *testing.T) {
	out, err := tui.NewRenderer()("# Title")
	assert.NoError(t, err)
	assert.Contains(t, out, "Title")
}
