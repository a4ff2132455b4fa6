package veil

import "context"

// engineAdapter exposes Engine to internal/bridge without that package
// needing to import veil (which would be a cycle: veil already imports
// bridge to construct one).
type engineAdapter struct {
	e *Engine
}

func (a *engineAdapter) DefineLabel(source string) (int64, error) {
	id, err := a.e.DefineLabel(context.Background(), source)
	return int64(id), err
}

func (a *engineAdapter) DefineLevel(attr, value string, rank int64) error {
	return a.e.DefineLevel(context.Background(), attr, value, int(rank))
}

func (a *engineAdapter) RegisterTable(logical, physical, rowCol string, tableLabelID *int64, insertLabel any) error {
	a.e.mu.Lock()
	defer a.e.mu.Unlock()
	return a.e.registerTableLocked(context.Background(), logical, physical, rowCol, tableLabelID, insertLabel)
}

func (a *engineAdapter) SetAttr(key, value string) error {
	a.e.SetAttr(AttrKey(key), AttrValue(value))
	return nil
}

func (a *engineAdapter) ClearContext() {
	a.e.ClearContext()
}

func (a *engineAdapter) PushContext() {
	a.e.PushContext()
}

func (a *engineAdapter) PopContext() error {
	return a.e.PopContext()
}

func (a *engineAdapter) RefreshViews() error {
	return a.e.Refresh(context.Background())
}

func (a *engineAdapter) AssertFresh() error {
	return a.e.AssertFresh()
}

func (a *engineAdapter) LabelVisible(labelID int64) (bool, error) {
	return a.e.LabelVisible(LabelID(labelID))
}

func (a *engineAdapter) BumpGeneration() {
	a.e.BumpGeneration()
}
