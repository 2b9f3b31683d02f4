package jam

// Matrix is the tier compatibility configuration: which caller/callee tier pairs
// a remote discipline may connect, and which tiers accept deferred execution.
type Matrix struct {
	deferrable map[Tier]bool
	allowed    map[Discipline]map[Tier]map[Tier]bool
}

// NewMatrix returns an empty matrix: nothing remote is allowed and every tier
// accepts deferred execution.
func NewMatrix() *Matrix {
	return &Matrix{
		deferrable: map[Tier]bool{},
		allowed:    map[Discipline]map[Tier]map[Tier]bool{},
	}
}

// DefaultMatrix allows synchronous calls only upward (device → fog → cloud) or
// within a tier, where a response is guaranteed, and asynchronous calls between
// any pair of tiers.
func DefaultMatrix() *Matrix {
	m := NewMatrix()
	m.Allow(SyncRemote, Device, Device, Fog, Cloud)
	m.Allow(SyncRemote, Fog, Fog, Cloud)
	m.Allow(SyncRemote, Cloud, Cloud)
	for _, from := range Tiers {
		m.Allow(AsyncRemote, from, Tiers...)
	}
	return m
}

// Allow permits discipline d from tier `from` to each of `to`.
func (m *Matrix) Allow(d Discipline, from Tier, to ...Tier) *Matrix {
	byFrom, ok := m.allowed[d]
	if !ok {
		byFrom = map[Tier]map[Tier]bool{}
		m.allowed[d] = byFrom
	}
	targets, ok := byFrom[from]
	if !ok {
		targets = map[Tier]bool{}
		byFrom[from] = targets
	}
	for _, t := range to {
		targets[t] = true
	}
	return m
}

// SetDeferrable sets whether tier t accepts asynchronous (deferred) execution.
func (m *Matrix) SetDeferrable(t Tier, deferrable bool) *Matrix {
	m.deferrable[t] = deferrable
	return m
}

// Deferrable reports whether t accepts deferred execution; unset tiers do.
func (m *Matrix) Deferrable(t Tier) bool {
	if v, ok := m.deferrable[t]; ok {
		return v
	}
	return true
}

// Permits reports whether discipline d may connect a caller on tier `from` to a
// callee on tier `to`. Local calls are always permitted; an unspecified tier on
// either end leaves the pair unconstrained.
func (m *Matrix) Permits(d Discipline, from, to Tier) bool {
	if d == Local {
		return true
	}
	if !from.Specified() || !to.Specified() {
		return true
	}
	return m.allowed[d][from][to]
}
