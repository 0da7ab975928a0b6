package session

// EditGate tracks whether the widget holds edits the store has not seen yet.
// While an edit is pending, remote content must not be applied over it.
//
// The gate is owned by the scheduler loop and is not safe for concurrent use.
type EditGate struct {
	pending bool
	// gen counts local edits. A save only clears the gate when no edit landed
	// while it was in flight.
	gen uint64
}

// MarkLocalEdit records a local change and returns the edit generation a save
// of the current content should carry.
func (g *EditGate) MarkLocalEdit() uint64 {
	g.pending = true
	g.gen++
	return g.gen
}

// Generation is the number of local edits seen so far.
func (g *EditGate) Generation() uint64 {
	return g.gen
}

// Pending reports whether unsaved local edits exist.
func (g *EditGate) Pending() bool {
	return g.pending
}

// TryAcquireForRemoteApply reports whether remote content may replace the
// widget content right now.
func (g *EditGate) TryAcquireForRemoteApply() bool {
	return !g.pending
}

// ReleaseAfterLocalSave clears the gate if savedGen is still the latest edit
// and reports whether it did.
func (g *EditGate) ReleaseAfterLocalSave(savedGen uint64) bool {
	if savedGen != g.gen {
		return false
	}
	g.pending = false
	return true
}
