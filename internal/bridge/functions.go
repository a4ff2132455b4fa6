package bridge

import (
	"database/sql/driver"

	sqlite "modernc.org/sqlite"
)

func argString(v driver.Value) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func argInt64(v driver.Value) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		return int64(n), true
	default:
		return 0, false
	}
}

func fnDefineLabel(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	h := currentHost()
	if h == nil {
		return nil, ErrNoActiveEngine
	}
	src, _ := argString(args[0])
	id, err := h.DefineLabel(src)
	if err != nil {
		return nil, err
	}
	return id, nil
}

func fnDefineLevel(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	h := currentHost()
	if h == nil {
		return nil, ErrNoActiveEngine
	}
	attr, _ := argString(args[0])
	name, _ := argString(args[1])
	rank, _ := argInt64(args[2])
	if err := h.DefineLevel(attr, name, rank); err != nil {
		return nil, err
	}
	return int64(1), nil
}

func fnRegisterTable(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	h := currentHost()
	if h == nil {
		return nil, ErrNoActiveEngine
	}
	logical, _ := argString(args[0])
	physical, _ := argString(args[1])
	rowCol, _ := argString(args[2])

	var tableLabelID *int64
	if args[3] != nil {
		v, _ := argInt64(args[3])
		tableLabelID = &v
	}

	var insertLabel any
	if args[4] != nil {
		if s, ok := argString(args[4]); ok {
			insertLabel = s
		} else if n, ok := argInt64(args[4]); ok {
			insertLabel = n
		}
	}

	if err := h.RegisterTable(logical, physical, rowCol, tableLabelID, insertLabel); err != nil {
		return nil, err
	}
	return int64(1), nil
}

func fnSetAttr(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	h := currentHost()
	if h == nil {
		return nil, ErrNoActiveEngine
	}
	key, _ := argString(args[0])
	value, _ := argString(args[1])
	if err := h.SetAttr(key, value); err != nil {
		return nil, err
	}
	return nil, nil
}

func fnClearContext(_ *sqlite.FunctionContext, _ []driver.Value) (driver.Value, error) {
	h := currentHost()
	if h == nil {
		return nil, ErrNoActiveEngine
	}
	h.ClearContext()
	return nil, nil
}

func fnPushContext(_ *sqlite.FunctionContext, _ []driver.Value) (driver.Value, error) {
	h := currentHost()
	if h == nil {
		return nil, ErrNoActiveEngine
	}
	h.PushContext()
	return nil, nil
}

func fnPopContext(_ *sqlite.FunctionContext, _ []driver.Value) (driver.Value, error) {
	h := currentHost()
	if h == nil {
		return nil, ErrNoActiveEngine
	}
	if err := h.PopContext(); err != nil {
		return nil, err
	}
	return nil, nil
}

func fnRefreshViews(_ *sqlite.FunctionContext, _ []driver.Value) (driver.Value, error) {
	h := currentHost()
	if h == nil {
		return nil, ErrNoActiveEngine
	}
	if err := h.RefreshViews(); err != nil {
		return nil, err
	}
	return nil, nil
}

func fnAssertFresh(_ *sqlite.FunctionContext, _ []driver.Value) (driver.Value, error) {
	h := currentHost()
	if h == nil {
		return nil, ErrNoActiveEngine
	}
	if err := h.AssertFresh(); err != nil {
		return nil, err
	}
	return int64(1), nil
}

func fnLabelVisible(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	h := currentHost()
	if h == nil {
		return nil, ErrNoActiveEngine
	}
	id, _ := argInt64(args[0])
	ok, err := h.LabelVisible(id)
	if err != nil {
		return nil, err
	}
	if ok {
		return int64(1), nil
	}
	return int64(0), nil
}

func fnBumpGeneration(_ *sqlite.FunctionContext, _ []driver.Value) (driver.Value, error) {
	h := currentHost()
	if h == nil {
		return nil, ErrNoActiveEngine
	}
	h.BumpGeneration()
	return nil, nil
}
