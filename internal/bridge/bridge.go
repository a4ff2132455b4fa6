// Package bridge implements the Host Function Bridge: it registers the
// spec.md §6 scalar functions against the host engine, plus the
// internal sec_bump_generation function used by the
// sec_columns_bump_generation catalog trigger (see internal/catalog's
// schema DDL).
//
// Grounded on original_source/src/ffi.rs's sqlite3_create_function_v2
// registration list, translated to modernc.org/sqlite's Go-level
// scalar-function registration API.
package bridge

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"

	sqlite "modernc.org/sqlite"
)

// Host is the subset of *veil.Engine the bridge dispatches scalar-
// function calls to. The root package supplies the implementation; it
// owns the catalog, the context, the level catalog, and the
// materializer.
type Host interface {
	DefineLabel(source string) (int64, error)
	DefineLevel(attr, value string, rank int64) error
	// RegisterTable's insertLabel is nil, an int64 label id, or a
	// string label source (auto-defined), per spec.md §6's note that
	// sec_register_table accepts either shape.
	RegisterTable(logical, physical, rowCol string, tableLabelID *int64, insertLabel any) error
	SetAttr(key, value string) error
	ClearContext()
	PushContext()
	PopContext() error
	RefreshViews() error
	AssertFresh() error
	LabelVisible(labelID int64) (bool, error)
	BumpGeneration()
}

// ErrNoActiveEngine is returned by a registered scalar function when
// no veil.Engine is currently attached in this process.
var ErrNoActiveEngine = errors.New("veil: no active Engine for this process")

var (
	mu         sync.Mutex
	active     Host
	registered bool
)

// Bridge represents one Engine's claim on the process-global scalar-
// function registry. modernc.org/sqlite registers functions for every
// connection the driver opens, not per-connection, so only one Engine
// may be active in a process at a time (see SPEC_FULL.md §4.6).
type Bridge struct {
	db *sql.DB
}

// New registers the bridge functions (once per process) and attaches
// host as the active dispatch target. Returns an error if another
// Engine is already active.
func New(db *sql.DB, host Host) (*Bridge, error) {
	mu.Lock()
	defer mu.Unlock()

	if active != nil {
		return nil, errors.New("veil: another Engine is already active in this process")
	}
	if !registered {
		if err := registerFunctions(); err != nil {
			return nil, err
		}
		registered = true
	}
	active = host
	return &Bridge{db: db}, nil
}

// Close detaches host, freeing the process for a new Engine. The
// underlying SQLite function registrations are never undone; they
// simply report ErrNoActiveEngine until the next New call.
func (b *Bridge) Close() error {
	mu.Lock()
	active = nil
	mu.Unlock()
	return nil
}

func currentHost() Host {
	mu.Lock()
	defer mu.Unlock()
	return active
}

func registerFunctions() error {
	reg := []struct {
		name string
		args int32
		fn   func(*sqlite.FunctionContext, []driver.Value) (driver.Value, error)
		det  bool
	}{
		{"sec_define_label", 1, fnDefineLabel, false},
		{"sec_define_level", 3, fnDefineLevel, false},
		{"sec_register_table", 5, fnRegisterTable, false},
		{"sec_set_attr", 2, fnSetAttr, false},
		{"sec_clear_context", 0, fnClearContext, false},
		{"sec_push_context", 0, fnPushContext, false},
		{"sec_pop_context", 0, fnPopContext, false},
		{"sec_refresh_views", 0, fnRefreshViews, false},
		{"sec_assert_fresh", 0, fnAssertFresh, false},
		{"sec_label_visible", 1, fnLabelVisible, true},
		{"sec_bump_generation", 0, fnBumpGeneration, false},
	}
	for _, r := range reg {
		var err error
		if r.det {
			err = sqlite.RegisterDeterministicScalarFunction(r.name, r.args, r.fn)
		} else {
			err = sqlite.RegisterScalarFunction(r.name, r.args, r.fn)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
