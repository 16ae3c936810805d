package ops

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/vfxbridge/pkg/domain"
	"github.com/aretw0/vfxbridge/pkg/graph"
	"github.com/aretw0/vfxbridge/pkg/host"
)

const flowRemediation = "Ensure the source context type can flow to the target type. " +
	"Standard flow: Spawner -> Initialize -> Update -> Output. " +
	"For GPU Events, use link_gpu_event or add a TriggerEvent block first."

const gpuEventRemediation = "1) Add a TriggerEventAlways or TriggerEventOnDie block to the source context via add_block. " +
	"2) Then call link_gpu_event again; the source context will have an additional GPU event flow output. " +
	"3) Alternatively, use link_contexts with the correct fromFlowIndex for the GPU event output."

func (c *call) context(a host.Asset, id int, label string) (host.Object, error) {
	n, err := c.node(a, id, label)
	if err != nil {
		return nil, err
	}
	if !c.graph.IsA(n, graph.TypeContext) {
		return nil, domain.Errorf(domain.CodeValidation, "Node %d (%s) is not a VFXContext", id, c.graph.TypeName(n))
	}
	return n, nil
}

func (c *call) flowCount(ctx host.Object, name string) int {
	return len(c.graph.FlowSlots(ctx, name))
}

func (c *call) linkContexts(p Params) (domain.Result, error) {
	a := struct {
		Path          string `mapstructure:"path"`
		FromContextID int    `mapstructure:"fromContextId"`
		ToContextID   int    `mapstructure:"toContextId"`
		FromFlowIndex int    `mapstructure:"fromFlowIndex"`
		ToFlowIndex   int    `mapstructure:"toFlowIndex"`
	}{FromFlowIndex: -1}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) {
		return domain.Result{}, required("Path is required")
	}
	if a.FromContextID == 0 || a.ToContextID == 0 {
		return domain.Result{}, required("fromContextId and toContextId are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	from, err := c.context(asset, a.FromContextID, "Source context")
	if err != nil {
		return domain.Result{}, err
	}
	to, err := c.context(asset, a.ToContextID, "Target context")
	if err != nil {
		return domain.Result{}, err
	}

	outputs := c.flowCount(from, "outputFlowSlot")
	candidates := flowCandidates(a.FromFlowIndex, outputs)
	var errs []string
	linked := -1
	for _, idx := range candidates {
		if c.tryFlowLink(from, to, "LinkTo", idx, a.ToFlowIndex, &errs) || c.tryFlowLink(to, from, "LinkFrom", idx, a.ToFlowIndex, &errs) {
			linked = idx
			break
		}
	}
	if linked < 0 {
		return domain.Result{}, domain.NewError(domain.CodeInternalException,
			"Error linking contexts: "+strings.Join(errs, "; "), map[string]any{
				"sourceType":             c.graph.TypeName(from),
				"targetType":             c.graph.TypeName(to),
				"sourceOutputFlowSlots":  outputs,
				"targetInputFlowSlots":   c.flowCount(to, "inputFlowSlot"),
				"requestedFromFlowIndex": a.FromFlowIndex,
				"requestedToFlowIndex":   a.ToFlowIndex,
				"attemptedFlowIndices":   candidates,
				"linkErrors":             errs,
				"remediation":            flowRemediation,
			})
	}
	c.invalidate(from, CauseConnectionChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Linked context %s(id:%d) -> %s(id:%d)",
		c.graph.TypeName(from), a.FromContextID, c.graph.TypeName(to), a.ToContextID), map[string]any{
		"fromContextId": a.FromContextID,
		"toContextId":   a.ToContextID,
		"fromFlowIndex": linked,
		"toFlowIndex":   a.ToFlowIndex,
	}), nil
}

// flowCandidates is the port order tried when no index is requested: every
// non-zero output port ascending, then port 0.
func flowCandidates(requested, outputs int) []int {
	if requested >= 0 {
		return []int{requested}
	}
	if outputs <= 0 {
		return []int{0}
	}
	out := make([]int, 0, outputs)
	for i := 1; i < outputs; i++ {
		out = append(out, i)
	}
	return append(out, 0)
}

// tryFlowLink attempts name on recv for one output port index, widest
// overload first. The one-argument overload always links port 0 to port 0.
func (c *call) tryFlowLink(recv, other host.Object, name string, index, toIndex int, errs *[]string) bool {
	overloads := c.graph.Overloads(recv, name)
	sort.SliceStable(overloads, func(i, j int) bool { return len(overloads[i].Params()) > len(overloads[j].Params()) })
	for _, m := range overloads {
		var args []any
		switch len(m.Params()) {
		case 3:
			args = []any{other, index, toIndex}
		case 1:
			if index != 0 || toIndex != 0 {
				continue
			}
			args = []any{other}
		default:
			continue
		}
		if _, err := m.Invoke(recv, args...); err != nil {
			*errs = append(*errs, fmt.Sprintf("flow:%d %s(%dp): %s", index, name, len(args), message(err)))
			continue
		}
		return true
	}
	return false
}

func (c *call) linkGPUEvent(p Params) (domain.Result, error) {
	a := struct {
		Path              string `mapstructure:"path"`
		SourceContextID   int    `mapstructure:"sourceContextId"`
		GPUEventContextID int    `mapstructure:"gpuEventContextId"`
		SourceFlowIndex   int    `mapstructure:"sourceFlowIndex"`
	}{SourceFlowIndex: -1}
	if err := Decode(p, &a); err != nil {
		return domain.Result{}, err
	}
	if blank(a.Path) || a.SourceContextID == 0 || a.GPUEventContextID == 0 {
		return domain.Result{}, required("Path, sourceContextId, and gpuEventContextId are required")
	}
	asset, err := c.open(a.Path)
	if err != nil {
		return domain.Result{}, err
	}
	src := c.graph.Find(asset.Root(), a.SourceContextID)
	if src == nil {
		return domain.Result{}, notFound("Source context %d not found", a.SourceContextID)
	}
	gpu := c.graph.Find(asset.Root(), a.GPUEventContextID)
	if gpu == nil {
		return domain.Result{}, notFound("GPU Event context %d not found", a.GPUEventContextID)
	}

	// Trigger blocks added earlier may not have produced their flow port yet.
	c.invalidate(src, CauseSettingChanged)
	c.invalidate(asset.Root(), CauseStructureChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}

	outputs := c.flowCount(src, "outputFlowSlot")
	inputs := c.flowCount(gpu, "inputFlowSlot")
	candidates := flowCandidates(a.SourceFlowIndex, outputs)
	var errs []string
	linked := -1
	for _, idx := range candidates {
		if c.tryFlowLink(src, gpu, "LinkTo", idx, 0, &errs) || c.tryFlowLink(gpu, src, "LinkFrom", idx, 0, &errs) {
			linked = idx
			break
		}
	}
	if linked < 0 {
		return domain.Result{}, domain.NewError(domain.CodeInternalException,
			"Could not link GPU Event. GPU Events require a TriggerEvent block (e.g. TriggerEventAlways, TriggerEventOnDie) in the source context to create the GPU event flow output.",
			map[string]any{
				"sourceType":            c.graph.TypeName(src),
				"targetType":            c.graph.TypeName(gpu),
				"sourceOutputFlowSlots": outputs,
				"targetInputFlowSlots":  inputs,
				"attemptedFlowIndices":  candidates,
				"linkErrors":            errs,
				"remediation":           gpuEventRemediation,
			})
	}
	c.invalidate(src, CauseConnectionChanged)
	if err := c.persist(asset); err != nil {
		return domain.Result{}, err
	}
	return domain.OK(fmt.Sprintf("Linked GPU Event from %s[%d] flow:%d -> %s[%d]",
		c.graph.TypeName(src), a.SourceContextID, linked, c.graph.TypeName(gpu), a.GPUEventContextID), map[string]any{
		"sourceFlowIndex":       linked,
		"sourceOutputFlowSlots": outputs,
		"targetInputFlowSlots":  inputs,
	}), nil
}
