package ops

import (
	"fmt"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
)

type pathArgs struct {
	Path string `mapstructure:"path"`
}

func (c *call) saveGraph(p Params) (domain.Result, error) {
	var a pathArgs
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) {
		return domain.Result{}, required("path is required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Saved %s", asset.Path()), map[string]any{"path": asset.Path()}), nil
}

func (c *call) compileGraph(p Params) (domain.Result, error) {
	var a pathArgs
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) {
		return domain.Result{}, required("path is required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	root := asset.Root()
	c.invalidate(root, CauseExpressionGraphChanged)
	errs := c.compile(root)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Compilation triggered for %s", asset.Path()), map[string]any{
		"errorCount": len(errs),
		"errors":     errs,
	}), nil
}

// compile runs the host compiler when it has one and returns its errors.
func (c *call) compile(root host.Object) []string {
	out, err := c.graph.Call(root, "Compile")
	if err != nil {
		c.logger.Debug("compile unavailable", "type", c.graph.TypeName(root), "err", err)
		return c.compileErrors(root)
	}
	if len(out) == 0 {
		return []string{}
	}
	return stringList(out[0])
}

func (c *call) compileErrors(root host.Object) []string {
	out, err := c.graph.Call(root, "CompileErrors")
	if err != nil || len(out) == 0 {
		return []string{}
	}
	return stringList(out[0])
}

func stringList(v any) []string {
	out := []string{}
	for _, el := range graph.Elements(v) {
		out = append(out, fmt.Sprint(el))
	}
	return out
}

func (c *call) getCompilationStatus(p Params) (domain.Result, error) {
	var a pathArgs
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) {
		return domain.Result{}, required("path is required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	root := asset.Root()
	pending := false
	if v, ok := c.graph.Get(root, "compilationPending"); ok {
		pending, _ = v.(bool)
	}
	errs := c.compileErrors(root)
	msg := "No compilation errors"
	if len(errs) > 0 {
		msg = fmt.Sprintf("%d compilation errors", len(errs))
	}
	return domain.OK(msg, map[string]any{
		"isCompiling": pending,
		"errorCount":  len(errs),
		"errors":      errs,
	}), nil
}
