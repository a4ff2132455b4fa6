package veil

import (
	"context"

	"github.com/veilsec/veil/internal/lel"
	"github.com/veilsec/veil/internal/materializer"
)

// Refresh drops and recreates every managed view/trigger to reflect
// the current catalog and security context, per spec.md §4.5. After a
// successful Refresh, AssertFresh succeeds until the next context or
// catalog mutation.
func (e *Engine) Refresh(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := materializer.Refresh(ctx, e.db, e.cat, (*engineResolver)(e)); err != nil {
		return wrapEngineErr(err)
	}
	e.ctx.markMaterialized()
	return nil
}

// AssertFresh fails with a StalenessError if the context has mutated
// since the last Refresh.
func (e *Engine) AssertFresh() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.ctx.IsFresh() {
		return newError(KindStaleness, "views are stale with respect to the current context; call Refresh", nil)
	}
	return nil
}

// LabelVisible evaluates labelID's AST against the current security
// context, memoizing the result per (label, generation).
func (e *Engine) LabelVisible(labelID LabelID) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.labelVisibleLocked(int64(labelID))
}

// BumpGeneration strictly advances the generation counter outside of
// any normal context mutation. It backs the sec_columns_bump_generation
// catalog trigger, so a direct SQL UPDATE against sec_columns also
// invalidates freshness.
func (e *Engine) BumpGeneration() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ctx.bump()
}

func (e *Engine) labelVisibleLocked(labelID int64) (bool, error) {
	gen := e.ctx.currentGen
	if v, ok := e.cache.get(LabelID(labelID), gen); ok {
		return v, nil
	}
	node, ok := e.ast[LabelID(labelID)]
	if !ok {
		return false, newError(KindCatalog, "label id does not exist", nil)
	}
	visible, err := lel.Eval(node, e.ctx, e.lvls)
	if err != nil {
		return false, wrapEngineErr(err)
	}
	e.cache.set(LabelID(labelID), gen, visible)
	return visible, nil
}

// engineResolver adapts *Engine to materializer.LabelResolver without
// exposing the Engine's exported, locking methods to the materializer
// package (Refresh already holds e.mu for the duration of the call).
type engineResolver Engine

func (r *engineResolver) Visible(_ context.Context, labelID int64) (bool, error) {
	return (*Engine)(r).labelVisibleLocked(labelID)
}
