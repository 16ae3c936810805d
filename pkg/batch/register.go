package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/contract"
	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/registry"
)

// Register adds batch_execute, create_from_recipe and list_recipes to reg,
// with the batch and recipe aliases.
func Register(reg *registry.Registry, runner *Runner, lib *Library) {
	reg.Register("batch_execute", runner.Execute)
	reg.Register("create_from_recipe", func(ctx context.Context, params map[string]any) domain.Result {
		return runner.Recipe(ctx, lib, params)
	})
	reg.Register("list_recipes", func(ctx context.Context, params map[string]any) domain.Result {
		return ListRecipes(lib)
	})
	reg.Alias("batch", "batch_execute")
	reg.Alias("recipe", "create_from_recipe")
}

// Execute is the batch_execute action: params carry path and operations.
func (r *Runner) Execute(ctx context.Context, params map[string]any) domain.Result {
	path, _ := params["path"].(string)
	raw, ok := params["operations"]
	if strings.TrimSpace(path) == "" || !ok || raw == nil {
		return domain.Fail(domain.CodeValidation, "path and operations array are required", nil)
	}
	ops, err := DecodeAll(raw)
	if err != nil {
		return domain.Fail(domain.CodeValidation, err.Error(), nil)
	}
	return r.result(ctx, path, ops)
}

func (r *Runner) result(ctx context.Context, path string, ops []Operation) domain.Result {
	rep, err := r.Run(ctx, path, ops)
	if err != nil {
		return contract.FromError(err)
	}
	return domain.OK(rep.Message(), rep)
}

// Recipe is the create_from_recipe action. Parameters other than path and
// recipe are passed to the recipe as arguments.
func (r *Runner) Recipe(ctx context.Context, lib *Library, params map[string]any) domain.Result {
	path, _ := params["path"].(string)
	name, _ := params["recipe"].(string)
	if strings.TrimSpace(path) == "" || strings.TrimSpace(name) == "" {
		return domain.Fail(domain.CodeValidation, "path and recipe are required", nil)
	}
	recipe, ok := lib.Get(name)
	if !ok {
		return domain.Fail(domain.CodeNotFound, fmt.Sprintf("Unknown recipe '%s'", name),
			map[string]any{"available": lib.Names()})
	}
	args := Args{}
	for k, v := range params {
		if k != "path" && k != "recipe" {
			args[k] = v
		}
	}
	ops, err := recipe.Expand(args)
	if err != nil {
		return domain.Fail(domain.CodeValidation, fmt.Sprintf("Recipe '%s': %v", recipe.Name, err), nil)
	}
	r.logger.Info("expanding recipe", "recipe", recipe.Name, "source", recipe.Source, "ops", len(ops))
	return r.result(ctx, path, ops)
}

// ListRecipes is the list_recipes action.
func ListRecipes(lib *Library) domain.Result {
	recipes := lib.List()
	out := make([]map[string]any, 0, len(recipes))
	for _, rec := range recipes {
		entry := map[string]any{
			"name":        rec.Name,
			"description": rec.Description,
			"source":      rec.Source,
		}
		if ops, err := rec.Expand(Args{}); err == nil {
			entry["operations"] = len(ops)
		}
		out = append(out, entry)
	}
	return domain.OK(fmt.Sprintf("Found %d recipes", len(out)), map[string]any{"recipes": out})
}
