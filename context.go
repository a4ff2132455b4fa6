package veil

// secContext is the multi-valued attribute bag plus push/pop stack
// described in spec.md §4.3, grounded on original_source's ContextStack
// (a stack of cloned maps) but adapted to the anonymous LIFO stack the
// spec describes, and to track the two derived generation counters here
// rather than in a separate "dirty" boolean.
type secContext struct {
	attrs map[AttrKey]map[AttrValue]struct{}

	stack []map[AttrKey]map[AttrValue]struct{}

	currentGen      Generation
	materializedGen Generation
}

func newSecContext() *secContext {
	return &secContext{
		attrs: make(map[AttrKey]map[AttrValue]struct{}),
	}
}

// bump strictly advances the generation counter. Every context mutation
// goes through this, per spec.md's invariant that a mutation always
// strictly advances the generation.
func (c *secContext) bump() {
	c.currentGen++
}

// SetAttr adds value to the set at key, bumping the generation.
func (c *secContext) SetAttr(key AttrKey, value AttrValue) {
	set, ok := c.attrs[key]
	if !ok {
		set = make(map[AttrValue]struct{})
		c.attrs[key] = set
	}
	set[value] = struct{}{}
	c.bump()
}

// Clear empties all attribute sets without touching the stack.
func (c *secContext) Clear() {
	c.attrs = make(map[AttrKey]map[AttrValue]struct{})
	c.bump()
}

// Push deep-copies the current mapping onto the stack. Per spec.md,
// implementations may keep the generation stable on push since the
// snapshot itself is not a logical change; this implementation does so.
func (c *secContext) Push() {
	c.stack = append(c.stack, cloneAttrs(c.attrs))
}

// Pop restores the top of the stack as current, bumping the generation
// only if the restored mapping differs from the one just discarded (per
// spec.md's recommended resolution of the push/pop generation question).
func (c *secContext) Pop() error {
	if len(c.stack) == 0 {
		return ErrEmptyStack
	}
	restored := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]

	changed := !attrsEqual(c.attrs, restored)
	c.attrs = restored
	if changed {
		c.bump()
	}
	return nil
}

// Values implements lel.AttrSource.
func (c *secContext) Values(attr string) ([]string, bool) {
	set, ok := c.attrs[AttrKey(attr)]
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, string(v))
	}
	return out, true
}

// IsFresh reports whether the materialized generation matches the
// current generation.
func (c *secContext) IsFresh() bool {
	return c.materializedGen == c.currentGen
}

// markMaterialized records that views now reflect the current generation.
func (c *secContext) markMaterialized() {
	c.materializedGen = c.currentGen
}

func cloneAttrs(in map[AttrKey]map[AttrValue]struct{}) map[AttrKey]map[AttrValue]struct{} {
	out := make(map[AttrKey]map[AttrValue]struct{}, len(in))
	for k, set := range in {
		clone := make(map[AttrValue]struct{}, len(set))
		for v := range set {
			clone[v] = struct{}{}
		}
		out[k] = clone
	}
	return out
}

func attrsEqual(a, b map[AttrKey]map[AttrValue]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k, setA := range a {
		setB, ok := b[k]
		if !ok || len(setA) != len(setB) {
			return false
		}
		for v := range setA {
			if _, ok := setB[v]; !ok {
				return false
			}
		}
	}
	return true
}
