// Package veil adds declarative, label-based row-, column-, and
// table-level security to ordinary tables in an embedded SQL database.
//
// Applications continue to write SQL against a logical view; veil
// rewrites that view (and its instead-of triggers) whenever the active
// security context changes. Writes against the view are rerouted to the
// physical table, re-checking policy at modification time.
//
// # Core Concepts
//
// A Label is a named boolean expression over context attributes:
//
//	admin, _ := engine.DefineLabel(ctx, "role=admin")
//
// A Context attribute is a multi-valued key, authenticated by whatever
// called the context-mutating functions:
//
//	engine.SetAttr("role", "admin")
//	engine.Refresh(ctx)
//
// # Single Connection Per Engine
//
// Because scalar function registration against the embedded host engine
// is process-global rather than connection-scoped, an Engine represents
// exactly one logical host connection for its lifetime. Running two
// Engines against two databases in the same process is unsupported.
//
// # Caching
//
// Label visibility is memoized per (label, generation) in an in-memory
// cache (replaceable via WithCache); a context mutation bumps the generation and implicitly invalidates the
// cache.
package veil

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	"github.com/veilsec/veil/internal/bridge"
	"github.com/veilsec/veil/internal/catalog"
	"github.com/veilsec/veil/internal/lel"
	"github.com/veilsec/veil/internal/levels"
)

// schemaWarning runs once per process on the first Open call, the same
// scope melange's validateSchema uses for its own startup warnings.
var schemaWarning sync.Once

// LabelID is a stable, monotonic identifier for a defined Label.
type LabelID int64

// Generation is a monotonically advancing counter tagging whether views
// are fresh with respect to the current context and catalog.
type Generation uint64

// AttrKey is a security-context attribute name.
type AttrKey string

// AttrValue is one value in the (multi-valued) set assigned to an AttrKey.
type AttrValue string

// TrueLabel is the reserved, implicitly-true label. It always exists and
// is never deleted.
const TrueLabel LabelID = 1

// Engine ties the catalog, security context, evaluator, and view
// materializer together against a single host connection.
//
// Engines are not safe to share across goroutines that might race a
// context mutation against a refresh; spec.md's concurrency model is
// single-threaded cooperative per connection, and so is this type.
type Engine struct {
	mu sync.Mutex

	db  *sql.DB
	cat *catalog.Store

	ctx   *secContext
	cache *visibilityCache

	lvls *levels.Catalog
	ast  map[LabelID]lel.Node // grows as labels are defined; never shrinks

	bridge *bridge.Bridge
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithCache supplies a non-default visibility cache. By default an
// unbounded in-memory cache keyed on (label, generation) is used.
func WithCache(c *visibilityCache) Option {
	return func(e *Engine) { e.cache = c }
}

// Open creates an Engine bound to a single physical connection to db.
// db.SetMaxOpenConns(1) is called to enforce the single-connection
// contract that host scalar-function registration relies on.
func Open(db *sql.DB, opts ...Option) (*Engine, error) {
	db.SetMaxOpenConns(1)

	e := &Engine{
		db:    db,
		cat:   catalog.NewStore(db),
		ctx:   newSecContext(),
		cache: newVisibilityCache(),
		lvls:  levels.NewCatalog(),
		ast:   map[LabelID]lel.Node{lel.TrueLabelID: lel.True{}},
	}
	for _, opt := range opts {
		opt(e)
	}

	// The bridge registers the host functions before the first query
	// opens the connection: the driver adds registered functions only to
	// connections opened after registration.
	br, err := bridge.New(db, &engineAdapter{e})
	if err != nil {
		return nil, fmt.Errorf("veil: attaching host function bridge: %w", err)
	}
	e.bridge = br

	if err := e.cat.EnsureSchema(context.Background()); err != nil {
		_ = br.Close()
		return nil, fmt.Errorf("veil: ensuring catalog schema: %w", err)
	}
	if err := e.loadCatalog(context.Background()); err != nil {
		_ = br.Close()
		return nil, fmt.Errorf("veil: loading catalog: %w", err)
	}

	e.warnIfUnconfigured(context.Background())

	return e, nil
}

// warnIfUnconfigured logs a one-time, process-wide warning if the
// database has no protected tables registered yet. Not fatal: an
// application may legitimately call RegisterTable after Open.
func (e *Engine) warnIfUnconfigured(ctx context.Context) {
	schemaWarning.Do(func() {
		tables, err := e.cat.AllTables(ctx)
		if err != nil {
			log.Printf("[veil] WARNING: could not check sec_tables: %v", err)
			return
		}
		if len(tables) == 0 {
			log.Printf("[veil] WARNING: no tables registered yet. Call RegisterTable before relying on protected views.")
		}
	})
}

// Close detaches the host function bridge and releases the underlying
// database handle.
func (e *Engine) Close() error {
	_ = e.bridge.Close()
	return e.db.Close()
}

// loadCatalog hydrates the in-memory label AST cache and level catalog
// from the persistent sec_labels/sec_levels tables. Called once at Open
// and is safe to call again after an external process has mutated the
// catalog, though veil itself never needs to.
func (e *Engine) loadCatalog(ctx context.Context) error {
	rows, err := e.cat.AllLabels(ctx)
	if err != nil {
		return err
	}
	for _, r := range rows {
		node, err := lel.Parse(r.Source)
		if err != nil {
			return fmt.Errorf("veil: stored label %d (%q) no longer parses: %w", r.ID, r.Source, err)
		}
		e.ast[LabelID(r.ID)] = node
	}

	lvlRows, err := e.cat.AllLevels(ctx)
	if err != nil {
		return err
	}
	for _, r := range lvlRows {
		if err := e.lvls.Define(r.Attr, r.Value, r.Rank); err != nil {
			return err
		}
	}
	return nil
}
