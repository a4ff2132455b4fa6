package veil

import (
	"context"
	"errors"

	"github.com/veilsec/veil/internal/catalog"
	"github.com/veilsec/veil/internal/lel"
	"github.com/veilsec/veil/internal/levels"
	"github.com/veilsec/veil/internal/materializer"
)

// DefineLabel parses, canonicalizes, and stores source, returning the
// existing label ID if an equivalent label already exists. Bumps the
// generation counter, per spec.md §4.4.
func (e *Engine) DefineLabel(ctx context.Context, source string) (LabelID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defineLabelLocked(ctx, source)
}

func (e *Engine) defineLabelLocked(ctx context.Context, source string) (LabelID, error) {
	id, node, err := e.cat.DefineLabel(ctx, source)
	if err != nil {
		return 0, wrapEngineErr(err)
	}
	e.ast[LabelID(id)] = node
	e.ctx.bump()
	return LabelID(id), nil
}

// wrapEngineErr maps internal/catalog and internal/lel errors onto the
// veil.Error kinds from spec.md §7, so callers can use the Is*Err
// helpers regardless of which internal package raised the error.
func wrapEngineErr(err error) error {
	if err == nil {
		return nil
	}
	var ce *catalog.CatalogError
	if errors.As(err, &ce) {
		return newError(KindCatalog, ce.Msg, ce.Err)
	}
	var se *catalog.SchemaError
	if errors.As(err, &se) {
		return newError(KindSchema, se.Msg, se.Err)
	}
	var pe *lel.ParseError
	if errors.As(err, &pe) {
		return newError(KindParse, pe.Error(), nil)
	}
	var ee *lel.EvaluationError
	if errors.As(err, &ee) {
		return newError(KindEvaluation, ee.Error(), nil)
	}
	var de *levels.DuplicateError
	if errors.As(err, &de) {
		return newError(KindCatalog, de.Error(), nil)
	}
	var me *materializer.SchemaError
	if errors.As(err, &me) {
		return newError(KindSchema, me.Error(), nil)
	}
	return err
}
