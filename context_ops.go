package veil

// SetAttr adds value to the set of values the security context holds
// for key. Bumps the generation counter.
func (e *Engine) SetAttr(key AttrKey, value AttrValue) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctx.SetAttr(key, value)
}

// ClearContext empties every attribute without touching the push/pop
// stack. Bumps the generation counter.
func (e *Engine) ClearContext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctx.Clear()
}

// PushContext saves a snapshot of the current attribute set.
func (e *Engine) PushContext() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctx.Push()
}

// PopContext restores the most recently pushed snapshot, returning
// ErrEmptyStack if nothing was pushed. Bumps the generation only if
// the restored attributes differ from the ones just discarded.
func (e *Engine) PopContext() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ctx.Pop()
}
