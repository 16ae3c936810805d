package batch

import (
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/vfxbridge/internal/logging"
	"github.com/aretw0/vfxbridge/pkg/ports"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Args are the caller-supplied recipe parameters.
type Args map[string]any

// Decode copies args into out, a struct with mapstructure tags. Fields
// left absent keep their value, so out can carry defaults.
func (a Args) Decode(out any) error {
	if len(a) == 0 {
		return nil
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]any(a))
}

// Recipe is a named template expanding to a fixed batch.
type Recipe struct {
	Name        string
	Description string
	// Source is "builtin" or the loader the recipe came from.
	Source string
	Expand func(Args) ([]Operation, error)
}

// Document is the stored form of a user recipe. Strings of the form
// "{{ key }}" in operation parameters are replaced by the argument key,
// falling back to Defaults.
type Document struct {
	Name        string         `yaml:"name" json:"name"`
	Description string         `yaml:"description" json:"description"`
	Defaults    map[string]any `yaml:"defaults" json:"defaults"`
	Operations  []Operation    `yaml:"operations" json:"operations"`
}

// ParseDocument decodes a recipe document. YAML and JSON are both accepted.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse recipe: %w", err)
	}
	if len(doc.Operations) == 0 {
		return Document{}, fmt.Errorf("parse recipe: no operations")
	}
	return doc, nil
}

var placeholder = regexp.MustCompile(`^\{\{\s*(\w+)\s*\}\}$`)

// Recipe turns the document into a Recipe.
func (d Document) Recipe(source string) Recipe {
	return Recipe{
		Name:        d.Name,
		Description: d.Description,
		Source:      source,
		Expand: func(args Args) ([]Operation, error) {
			out := make([]Operation, len(d.Operations))
			for i, op := range d.Operations {
				params := make(map[string]Value, len(op.Params))
				for k, v := range op.Params {
					sub, err := d.substitute(v, args)
					if err != nil {
						return nil, fmt.Errorf("operation %d %s: %w", i, k, err)
					}
					params[k] = sub
				}
				out[i] = Operation{Op: op.Op, Ref: op.Ref, Params: params}
			}
			return out, nil
		},
	}
}

func (d Document) substitute(v Value, args Args) (Value, error) {
	lit, ok := v.(Literal)
	if !ok {
		return v, nil
	}
	s, ok := lit.V.(string)
	if !ok {
		return v, nil
	}
	m := placeholder.FindStringSubmatch(s)
	if m == nil {
		return v, nil
	}
	if val, ok := args[m[1]]; ok {
		return Lit(val), nil
	}
	if val, ok := d.Defaults[m[1]]; ok {
		return Lit(val), nil
	}
	return nil, fmt.Errorf("no value for %s", s)
}

// Library holds the recipes create_from_recipe can expand.
type Library struct {
	mu      sync.RWMutex
	recipes map[string]Recipe
	loaded  map[string]Recipe // parsed loader documents
	gen     int               // bumped whenever loaded is dropped
	loader  ports.RecipeLoader
	source  string
	logger  *slog.Logger
}

// NewLibrary creates a Library holding recipes.
func NewLibrary(recipes ...Recipe) *Library {
	l := &Library{recipes: map[string]Recipe{}, loaded: map[string]Recipe{}, logger: logging.NewNop()}
	for _, r := range recipes {
		l.Add(r)
	}
	return l
}

// Add registers r, replacing a recipe of the same name.
func (l *Library) Add(r Recipe) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recipes[strings.ToLower(r.Name)] = r
}

// UseLoader consults loader for names the library does not hold. source
// labels the recipes it provides.
func (l *Library) UseLoader(loader ports.RecipeLoader, source string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loader = loader
	l.source = source
	l.gen++
	clear(l.loaded)
}

// Invalidate drops the parsed loader documents so the next Get reads the
// loader again.
func (l *Library) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.gen++
	clear(l.loaded)
}

// SetLogger sets the logger used for loader failures.
func (l *Library) SetLogger(logger *slog.Logger) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger = logger
}

// Get returns the recipe named name. Built-in names win over loaded ones.
func (l *Library) Get(name string) (Recipe, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	l.mu.RLock()
	r, ok := l.recipes[key]
	if !ok {
		r, ok = l.loaded[key]
	}
	loader, source, logger, gen := l.loader, l.source, l.logger, l.gen
	l.mu.RUnlock()
	if ok {
		return r, true
	}
	if loader == nil {
		return Recipe{}, false
	}
	data, err := loader.GetRecipe(strings.TrimSpace(name))
	if err != nil {
		return Recipe{}, false
	}
	doc, err := ParseDocument(data)
	if err != nil {
		logger.Warn("invalid recipe", "name", name, "err", err)
		return Recipe{}, false
	}
	if doc.Name == "" {
		doc.Name = name
	}
	r = doc.Recipe(source)

	l.mu.Lock()
	if l.gen == gen {
		l.loaded[key] = r
	}
	l.mu.Unlock()
	return r, true
}

// List returns every available recipe, sorted by name.
func (l *Library) List() []Recipe {
	l.mu.RLock()
	out := make([]Recipe, 0, len(l.recipes))
	seen := map[string]bool{}
	for key, r := range l.recipes {
		out = append(out, r)
		seen[key] = true
	}
	loader, logger := l.loader, l.logger
	l.mu.RUnlock()

	if loader != nil {
		names, err := loader.ListRecipes()
		if err != nil {
			logger.Warn("listing recipes failed", "err", err)
		}
		for _, name := range names {
			if seen[strings.ToLower(name)] {
				continue
			}
			if r, ok := l.Get(name); ok {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the available recipe names, sorted.
func (l *Library) Names() []string {
	recipes := l.List()
	out := make([]string, len(recipes))
	for i, r := range recipes {
		out[i] = r.Name
	}
	return out
}
