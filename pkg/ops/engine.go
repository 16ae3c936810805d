// Package ops implements the graph actions: structural edits, settings,
// properties, flow links and generators.
//
// Every mutation follows the same life cycle. Parameters are validated, the
// structural change is applied with host notifications suppressed, the host
// consistency pass is attempted as a best-effort secondary step (see
// SafeInvalidate) and the asset is persisted. A failure of the secondary
// step never fails the action.
//
// Actions executed with ExecuteDeferred skip the secondary step and
// persistence; the caller runs both once through Commit.
package ops

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/pkg/contract"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
	"github.com/aretw0/vfxbridge/pkg/registry"
)

type handler func(c *call, p Params) (domain.Result, error)

// Engine executes actions against the graphs of a host.
type Engine struct {
	host     host.Host
	graph    *graph.Adapter
	logger   *slog.Logger
	fileRoot string

	handlers map[string]handler
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithFileRoot sets the directory generated scripts are written under.
// Defaults to the working directory.
func WithFileRoot(dir string) Option {
	return func(e *Engine) {
		e.fileRoot = dir
	}
}

// New creates an Engine. Every host touch goes through adapter.
func New(h host.Host, adapter *graph.Adapter, opts ...Option) *Engine {
	e := &Engine{
		host:   h,
		graph:  adapter,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.handlers = map[string]handler{
		"get_graph_info":          (*call).getGraphInfo,
		"list_node_types":         (*call).listNodeTypes,
		"list_block_types":        (*call).listBlockTypes,
		"get_connections":         (*call).getConnections,
		"get_node_settings":       (*call).getNodeSettings,
		"list_properties":         (*call).listProperties,
		"list_attributes":         (*call).listAttributes,
		"get_compilation_status":  (*call).getCompilationStatus,
		"add_node":                (*call).addNode,
		"remove_node":             (*call).removeNode,
		"move_node":               (*call).moveNode,
		"duplicate_node":          (*call).duplicateNode,
		"connect_nodes":           (*call).connectNodes,
		"disconnect_nodes":        (*call).disconnectNodes,
		"set_node_property":       (*call).setNodeProperty,
		"set_node_setting":        (*call).setNodeSetting,
		"add_block":               (*call).addBlock,
		"remove_block":            (*call).removeBlock,
		"reorder_block":           (*call).reorderBlock,
		"set_block_activation":    (*call).setBlockActivation,
		"add_attribute_block":     (*call).addAttributeBlock,
		"link_contexts":           (*call).linkContexts,
		"link_gpu_event":          (*call).linkGPUEvent,
		"set_capacity":            (*call).setCapacity,
		"set_space":               (*call).setSpace,
		"set_bounds":              (*call).setBounds,
		"configure_output":        (*call).configureOutput,
		"set_context_settings":    (*call).setContextSettings,
		"add_property":            (*call).addProperty,
		"remove_property":         (*call).removeProperty,
		"set_property_value":      (*call).setPropertyValue,
		"add_custom_attribute":    (*call).addCustomAttribute,
		"remove_custom_attribute": (*call).removeCustomAttribute,
		"set_hlsl_code":           (*call).setHLSLCode,
		"save_graph":              (*call).saveGraph,
		"compile_graph":           (*call).compileGraph,
		"create_buffer_helper":    (*call).createBufferHelper,
		"setup_buffer_pipeline":   (*call).setupBufferPipeline,
	}
	return e
}

// Adapter returns the graph adapter used by the engine.
func (e *Engine) Adapter() *graph.Adapter { return e.graph }

// Actions lists the action names, sorted.
func (e *Engine) Actions() []string {
	out := make([]string, 0, len(e.handlers))
	for name := range e.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Register adds every action to r, plus the graph_* and delete_node aliases.
func (e *Engine) Register(r *registry.Registry) {
	for _, name := range e.Actions() {
		name := name
		r.Register(name, func(ctx context.Context, params map[string]any) domain.Result {
			return e.Execute(ctx, name, params)
		})
	}
	r.Alias("graph_add_node", "add_node")
	r.Alias("graph_remove_node", "remove_node")
	r.Alias("delete_node", "remove_node")
	r.Alias("graph_move_node", "move_node")
	r.Alias("graph_duplicate_node", "duplicate_node")
	r.Alias("info", "get_graph_info")
}

// Execute runs one action, persisting its changes.
func (e *Engine) Execute(ctx context.Context, action string, params map[string]any) domain.Result {
	return e.run(&call{Engine: e, ctx: ctx}, action, params)
}

// ExecuteDeferred runs one action without the consistency pass and without
// persisting. Commit finishes the work.
func (e *Engine) ExecuteDeferred(ctx context.Context, action string, params map[string]any) domain.Result {
	return e.run(&call{Engine: e, ctx: ctx, deferred: true}, action, params)
}

func (e *Engine) run(c *call, action string, params map[string]any) (res domain.Result) {
	action = strings.ToLower(strings.TrimSpace(action))
	h, ok := e.handlers[action]
	if !ok {
		return domain.Fail(domain.CodeUnknownAction, fmt.Sprintf("Unknown action '%s'", action),
			map[string]any{"available": e.Actions()})
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("action panicked", "action", action, "panic", r)
			res = domain.Fail(domain.CodeInternalException, fmt.Sprintf("Error executing %s: %v", action, r), nil)
		}
	}()
	if params == nil {
		params = map[string]any{}
	}
	out, err := h(c, Params(params))
	if err != nil {
		return contract.FromError(err)
	}
	return contract.Normalize(out, action)
}

// Open loads the graph at path.
func (e *Engine) Open(ctx context.Context, path string) (host.Asset, error) {
	c := &call{Engine: e, ctx: ctx}
	return c.open(path)
}

// Commit runs the consistency pass over the whole graph at path and
// persists it. It is the closing step of deferred execution.
func (e *Engine) Commit(ctx context.Context, path string) error {
	c := &call{Engine: e, ctx: ctx}
	a, err := c.open(path)
	if err != nil {
		return err
	}
	e.SafeInvalidate(a.Root(), CauseStructureChanged)
	return c.persist(a)
}

// call is one action execution.
type call struct {
	*Engine
	ctx      context.Context
	deferred bool
}
