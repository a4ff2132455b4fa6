package materializer_test

import (
	"context"
	"database/sql/driver"
	"sync"
	"testing"

	sqlite "modernc.org/sqlite"
)

// registerFakeFunctions stands in for internal/bridge in these
// package-local tests: it registers sec_label_visible, sec_assert_fresh
// and a no-op sec_bump_generation (called by the sec_columns catalog
// trigger) against the process-global modernc.org/sqlite function
// registry (real registration happens once, via sync.Once; each test
// just swaps which resolver backs the lookups).
func registerFakeFunctions(t *testing.T, _ any, resolver *testResolver) {
	t.Helper()
	fakeFuncsOnce.Do(func() {
		if err := sqlite.RegisterScalarFunction("sec_label_visible", 1, evalLabelVisible); err != nil {
			t.Fatalf("registering sec_label_visible: %v", err)
		}
		if err := sqlite.RegisterScalarFunction("sec_assert_fresh", 0, evalAssertFresh); err != nil {
			t.Fatalf("registering sec_assert_fresh: %v", err)
		}
		if err := sqlite.RegisterScalarFunction("sec_bump_generation", 0, evalBumpGeneration); err != nil {
			t.Fatalf("registering sec_bump_generation: %v", err)
		}
	})
	fakeFuncsMu.Lock()
	fakeFuncsResolver = resolver
	fakeFuncsMu.Unlock()
}

var (
	fakeFuncsOnce     sync.Once
	fakeFuncsMu       sync.Mutex
	fakeFuncsResolver *testResolver
)

func evalLabelVisible(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	fakeFuncsMu.Lock()
	r := fakeFuncsResolver
	fakeFuncsMu.Unlock()
	if r == nil {
		return int64(1), nil
	}
	id, _ := args[0].(int64)
	ok, err := r.Visible(context.Background(), id)
	if err != nil {
		return nil, err
	}
	if ok {
		return int64(1), nil
	}
	return int64(0), nil
}

func evalAssertFresh(_ *sqlite.FunctionContext, _ []driver.Value) (driver.Value, error) {
	return int64(1), nil
}

func evalBumpGeneration(_ *sqlite.FunctionContext, _ []driver.Value) (driver.Value, error) {
	return nil, nil
}
