package ops

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/aretw0/vfxbridge/pkg/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// hlslFields are the members holding shader source, in lookup order.
var hlslFields = []string{"m_HLSLCode", "m_BodyContent", "sourceCode"}

func (c *call) setHLSLCode(p Params) (domain.Result, error) {
	var a nodeRef
	var code struct {
		Code string `mapstructure:"code"`
	}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if err := Decode(p, &code); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || a.id() == 0 || code.Code == "" {
		return domain.Result{}, required("Path, nodeId, and code are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	node, err := c.node(asset, a.id(), "Node")
	if err != nil {
		return domain.Result{}, err
	}
	t := c.graph.TypeOf(node)
	field := ""
	for _, name := range hlslFields {
		m := c.graph.Cache().Field(t, name)
		if m == nil {
			continue
		}
		if err := m.Set(node, code.Code); err != nil {
			return domain.Result{}, internal(err, "Error setting HLSL code: %s", message(err))
		}
		field = name
		break
	}
	if field == "" {
		if _, err := c.graph.Call(node, "SetSettingValue", "m_HLSLCode", code.Code); err != nil {
			return domain.Result{}, domain.Errorf(domain.CodeResolution,
				"No HLSL code field found on %s. Is this a Custom HLSL block/operator?", c.graph.TypeName(node)).Wrap(err)
		}
		field = "SetSettingValue(m_HLSLCode)"
	}
	c.invalidate(node, CauseSettingChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Set HLSL code on %s (%s)", c.graph.TypeName(node), field), map[string]any{
		"nodeId":     a.id(),
		"fieldName":  field,
		"codeLength": len(code.Code),
	}), nil
}

// scriptPath joins folder and name below the engine file root, refusing
// paths that leave it.
func (c *call) scriptPath(folder, name string) (string, string, error) {
	rel := filepath.Join(filepath.FromSlash(folder), name+".cs")
	if filepath.IsAbs(folder) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", "", domain.Errorf(domain.CodeValidation, "folder '%s' must be relative to the project root", folder)
	}
	return rel, filepath.Join(c.fileRoot, rel), nil
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (c *call) writeScript(folder, name, content string) (string, error) {
	rel, full, err := c.scriptPath(folder, name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", internal(err, "Error creating script: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return "", internal(err, "Error creating script: %v", err)
	}
	c.logger.Info("script written", "path", full)
	return filepath.ToSlash(rel), nil
}

func (c *call) createBufferHelper(p Params) (domain.Result, error) {
	a := struct {
		ScriptName   string `mapstructure:"scriptName"`
		PropertyName string `mapstructure:"propertyName"`
		Stride       int    `mapstructure:"stride"`
		Count        int    `mapstructure:"count"`
		Folder       string `mapstructure:"folder"`
	}{
		ScriptName:   "VFXBufferBinder",
		PropertyName: "Buffer",
		Stride:       16,
		Count:        1024,
		Folder:       "Assets/Scripts",
	}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if !identifier(a.ScriptName) {
		return domain.Result{}, required("scriptName '%s' is not a valid class name", a.ScriptName)
	}
	if a.Stride <= 0 || a.Count <= 0 {
		return domain.Result{}, required("stride and count must be positive")
	}
	src, err := render("buffer_binder.cs.tmpl", a)
	if err != nil {
		return domain.Result{}, internal(err, "Error creating script: %v", err)
	}
	path, err := c.writeScript(a.Folder, a.ScriptName, src)
	if err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Created GraphicsBuffer helper script at %s", path), map[string]any{
		"path":         path,
		"propertyName": a.PropertyName,
		"stride":       a.Stride,
		"count":        a.Count,
	}), nil
}

// StructField is one member of a generated buffer element struct.
type StructField struct {
	Name string `mapstructure:"name"`
	Type string `mapstructure:"type"`
}

var structFieldTypes = map[string]string{
	"float":     "float",
	"float2":    "Vector2",
	"vector2":   "Vector2",
	"float3":    "Vector3",
	"vector3":   "Vector3",
	"float4":    "Vector4",
	"vector4":   "Vector4",
	"int":       "int",
	"uint":      "uint",
	"bool":      "bool",
	"color":     "Color",
	"matrix4x4": "Matrix4x4",
}

// GenerateStruct renders a buffer element struct usable as a SampleBuffer
// type.
func GenerateStruct(name string, fields []StructField) (string, error) {
	out := make([]StructField, len(fields))
	for i, f := range fields {
		out[i] = StructField{Name: first(f.Name, "field"), Type: first(f.Type, "float")}
		if t, ok := structFieldTypes[strings.ToLower(out[i].Type)]; ok {
			out[i].Type = t
		}
	}
	return render("vfx_type.cs.tmpl", struct {
		Name   string
		Fields []StructField
	}{name, out})
}

func identifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}

// step runs a nested action with the current call, so deferred execution
// carries over.
func (c *call) step(action string, params map[string]any) domain.Result {
	return c.run(c, action, params)
}

func (c *call) setupBufferPipeline(p Params) (domain.Result, error) {
	a := struct {
		Path               string        `mapstructure:"path"`
		BufferPropertyName string        `mapstructure:"bufferPropertyName"`
		StructType         string        `mapstructure:"structType"`
		Capacity           int           `mapstructure:"capacity"`
		IndexAttribute     string        `mapstructure:"indexAttribute"`
		GenerateStruct     bool          `mapstructure:"generateStruct"`
		StructFields       []StructField `mapstructure:"structFields"`
		Folder             string        `mapstructure:"folder"`
	}{
		BufferPropertyName: "DataBuffer",
		StructType:         "Vector3",
		Capacity:           10000,
		IndexAttribute:     "particleId",
		Folder:             "Assets/Scripts",
	}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) {
		return domain.Result{}, required("path is required")
	}

	steps := []map[string]any{}
	record := func(name string, r domain.Result) domain.Result {
		steps = append(steps, map[string]any{"step": name, "result": r})
		return r
	}
	prop := record("add_buffer_property", c.step("add_property", map[string]any{
		"path": a.Path, "name": a.BufferPropertyName, "type": "GraphicsBuffer", "exposed": true,
	}))
	if !prop.Success {
		return domain.Result{}, domain.NewError(prop.ErrorCode, prop.Message, map[string]any{"steps": steps})
	}
	sampler := record("add_sample_buffer", c.step("add_node", map[string]any{
		"path": a.Path, "type": "SampleBuffer", "position": []any{-400, 300},
	}))
	if sampler.ID != 0 && !blank(a.StructType) {
		record("configure_sample_buffer_type", c.step("set_node_setting", map[string]any{
			"path": a.Path, "nodeId": sampler.ID, "settingName": "m_Type", "value": a.StructType,
		}))
	}

	var code, structPath any
	if a.GenerateStruct && len(a.StructFields) > 0 {
		src, err := GenerateStruct(a.StructType, a.StructFields)
		if err != nil {
			return domain.Result{}, internal(err, "Error generating struct: %v", err)
		}
		code = src
		if identifier(a.StructType) {
			if path, err := c.writeScript(a.Folder, a.StructType, src); err == nil {
				structPath = path
			} else {
				c.logger.Warn("struct script not written", "err", err)
			}
		}
	}

	next := []string{
		"Connect the buffer property node to the SampleBuffer's Buffer input",
		fmt.Sprintf("Connect a GetAttribute (%s) to the SampleBuffer's Index input", a.IndexAttribute),
		"Connect SampleBuffer outputs to Initialize/Update block inputs",
	}
	if code != nil {
		next = append(next, "Create the generated struct script file in your project")
	}
	return domain.OK(fmt.Sprintf("Buffer pipeline created with property '%s'", a.BufferPropertyName), map[string]any{
		"steps":               steps,
		"sampleBufferId":      sampler.ID,
		"bufferPropertyName":  a.BufferPropertyName,
		"structType":          a.StructType,
		"capacity":            a.Capacity,
		"generatedStruct":     code,
		"generatedStructPath": structPath,
		"nextSteps":           next,
	}), nil
}
