package veil

import "context"

// DefineLevel inserts an ordered level for attr, erroring if the
// (attr, value) pair or the rank collides with an existing entry.
// Bumps the generation counter, per spec.md §4.4.
func (e *Engine) DefineLevel(ctx context.Context, attr, value string, rank int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.cat.DefineLevel(ctx, attr, value, rank); err != nil {
		return wrapEngineErr(err)
	}
	if err := e.lvls.Define(attr, value, rank); err != nil {
		return wrapEngineErr(err)
	}
	e.ctx.bump()
	return nil
}
