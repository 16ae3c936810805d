package batch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/host"
)

// Executor runs single actions in deferred mode and finishes a batch with
// one consistency pass and one save. *ops.Engine implements it.
type Executor interface {
	Open(ctx context.Context, path string) (host.Asset, error)
	ExecuteDeferred(ctx context.Context, action string, params map[string]any) domain.Result
	Commit(ctx context.Context, path string) error
}

// Report summarises a batch run.
type Report struct {
	TotalOperations int            `json:"totalOperations"`
	Succeeded       int            `json:"succeeded"`
	Failed          int            `json:"failed"`
	Results         []OpResult     `json:"results"`
	Refs            map[string]int `json:"refs"`
}

// OpResult is the outcome of one operation.
type OpResult struct {
	Index     int              `json:"index"`
	Op        string           `json:"op"`
	Ref       string           `json:"ref,omitempty"`
	ID        int              `json:"id,omitempty"`
	Success   bool             `json:"success"`
	ErrorCode domain.ErrorCode `json:"error_code"`
	Message   string           `json:"message"`
}

// Message is the summary line of the report.
func (r Report) Message() string {
	return fmt.Sprintf("Batch complete: %d/%d operations succeeded", r.Succeeded, r.TotalOperations)
}

// Runner executes batches against one Executor.
type Runner struct {
	exec   Executor
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a Runner.
func NewRunner(exec Executor, opts ...Option) *Runner {
	r := &Runner{exec: exec, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run applies ops in order to the graph at path. A failing operation is
// recorded and its ref left unbound; the batch continues. The consistency
// pass and the save run once, after the last operation.
func (r *Runner) Run(ctx context.Context, path string, ops []Operation) (Report, error) {
	path = strings.TrimSpace(path)
	if path == "" || len(ops) == 0 {
		return Report{}, domain.NewError(domain.CodeValidation, "path and operations array are required", nil)
	}
	if _, err := r.exec.Open(ctx, path); err != nil {
		return Report{}, err
	}

	start := time.Now()
	refs := newTable()
	rep := Report{TotalOperations: len(ops), Results: make([]OpResult, 0, len(ops))}
	for i, op := range ops {
		out := r.step(ctx, path, i, op, refs)
		if out.Success {
			rep.Succeeded++
		} else {
			rep.Failed++
		}
		rep.Results = append(rep.Results, out)
	}
	rep.Refs = refs.names()

	if err := r.exec.Commit(ctx, path); err != nil {
		r.logger.Error("batch commit failed", "path", path, "err", err)
		return rep, domain.Errorf(domain.CodeInternalException,
			"Batch applied but %s could not be saved", path).WithDetails(rep).Wrap(err)
	}
	r.logger.Debug("batch complete", "path", path, "ops", rep.TotalOperations,
		"failed", rep.Failed, "duration", time.Since(start))
	return rep, nil
}

func (r *Runner) step(ctx context.Context, path string, index int, op Operation, refs *table) OpResult {
	out := OpResult{Index: index, Op: op.Op, Ref: op.Ref}
	if op.Op == "" {
		out.ErrorCode = domain.CodeMissingAction
		out.Message = "op is required"
		return out
	}
	params, err := refs.resolve(op.Params)
	if err != nil {
		out.ErrorCode = domain.CodeValidation
		out.Message = err.Error()
		return out
	}
	params["path"] = path

	res := r.exec.ExecuteDeferred(ctx, op.Op, params)
	out.Success = res.Success
	out.ErrorCode = res.ErrorCode
	out.Message = res.Message
	out.ID = res.ID
	if res.Success && op.Ref != "" && res.ID != 0 {
		refs.bind(op.Ref, res.ID)
	}
	if !res.Success {
		r.logger.Debug("batch operation failed", "index", index, "op", op.Op,
			"error_code", res.ErrorCode, "message", res.Message)
	}
	return out
}

// table holds the bound refs. Lookup ignores case.
type table struct {
	ids   map[string]int
	label map[string]string
}

func newTable() *table {
	return &table{ids: map[string]int{}, label: map[string]string{}}
}

func (t *table) bind(name string, id int) {
	key := strings.ToLower(name)
	t.ids[key] = id
	t.label[key] = name
}

func (t *table) lookup(name string) (int, bool) {
	id, ok := t.ids[strings.ToLower(name)]
	return id, ok
}

func (t *table) names() map[string]int {
	out := make(map[string]int, len(t.ids))
	for key, id := range t.ids {
		out[t.label[key]] = id
	}
	return out
}

// resolve produces the action parameters: refs are replaced by their ids
// and contextRef/fromRef/toRef are written to the id key they stand for. A
// reference under one of those keys wins over an explicit id; a literal
// there only fills the id key when it is absent.
func (t *table) resolve(in map[string]Value) (map[string]any, error) {
	out := make(map[string]any, len(in)+1)
	keys := (Operation{Params: in}).Keys()
	var aliases []string
	for _, key := range keys {
		if targetKey(key) != key {
			aliases = append(aliases, key)
			continue
		}
		if err := t.put(out, key, in[key]); err != nil {
			return nil, err
		}
	}
	for _, key := range aliases {
		target := targetKey(key)
		if _, isRef := in[key].(Ref); !isRef {
			if _, explicit := in[target]; explicit {
				continue
			}
		}
		if err := t.put(out, target, in[key]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (t *table) put(out map[string]any, target string, v Value) error {
	switch v := v.(type) {
	case Ref:
		id, ok := t.lookup(v.Name)
		if !ok {
			return fmt.Errorf("unresolved reference %s", v)
		}
		out[target] = id
	case Literal:
		out[target] = v.V
	case nil:
		out[target] = nil
	}
	return nil
}
