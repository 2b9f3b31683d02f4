package symtab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/jamc/jam"
)

func TestManager_ScopeBalance(t *testing.T) {
	tests := []struct {
		name     string
		ops      string // e: enter, x: exit
		wantErr  bool
		balanced bool
		maxDepth int
	}{
		{name: "empty", ops: "", balanced: true},
		{name: "balanced", ops: "eexeexxx", balanced: true, maxDepth: 2},
		{name: "open", ops: "eex", balanced: false, maxDepth: 2},
		{name: "underflow", ops: "exx", wantErr: true, balanced: true, maxDepth: 1},
		{name: "root exit", ops: "x", wantErr: true, balanced: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New(jam.C)
			var err error
			for _, op := range tt.ops {
				if op == 'e' {
					m.EnterScope(BlockScope, "")
					continue
				}
				if exitErr := m.ExitScope(); exitErr != nil {
					err = exitErr
				}
			}
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrScopeUnderflow))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.balanced, m.Balanced())
			assert.Equal(t, tt.maxDepth, m.MaxDepth())
			if tt.balanced {
				assert.Equal(t, 0, m.Depth())
				assert.True(t, m.Current().Global())
			}
		})
	}
}

func TestManager_Redeclaration(t *testing.T) {
	m := New(jam.JS)
	first, err := m.Declare("x", Variable, jam.Unspecified)
	require.NoError(t, err)
	first.Line = 1

	second, err := m.Declare("x", Function, jam.Fog)
	assert.True(t, errors.Is(err, ErrRedeclared))
	assert.Same(t, first, second)

	entry, _, ok := m.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, Variable, entry.Kind)
	assert.Equal(t, 1, entry.Line)
}

func TestManager_Shadowing(t *testing.T) {
	m := New(jam.C)
	outer, err := m.Declare("count", Variable, jam.Unspecified)
	require.NoError(t, err)

	m.EnterScope(FunctionScope, "f")
	inner, err := m.Declare("count", Variable, jam.Unspecified)
	require.NoError(t, err)

	found, scope, ok := m.Lookup("count")
	require.True(t, ok)
	assert.Same(t, inner, found)
	assert.False(t, scope.Global())

	require.NoError(t, m.ExitScope())
	found, scope, ok = m.Lookup("count")
	require.True(t, ok)
	assert.Same(t, outer, found)
	assert.True(t, scope.Global())

	_, _, ok = m.Lookup("missing")
	assert.False(t, ok)
}

func TestManager_Reference(t *testing.T) {
	m := New(jam.JS)
	_, err := m.Declare("g", Variable, jam.Unspecified)
	require.NoError(t, err)
	m.EnterScope(FunctionScope, "outer")
	local, err := m.Declare("n", Variable, jam.Unspecified)
	require.NoError(t, err)
	m.EnterScope(BlockScope, "")
	m.Reference("n")
	assert.False(t, local.Captured)

	m.EnterScope(FunctionScope, "inner")
	m.Reference("n")
	assert.True(t, local.Captured)

	global, _, _ := m.Reference("g")
	assert.False(t, global.Captured)
	assert.Equal(t, "inner", m.EnclosingFunction().Name)
}

func TestManager_SideEffectResult(t *testing.T) {
	m := New(jam.C)
	_, err := m.SideEffectResult()
	assert.True(t, errors.Is(err, ErrNotFinalized))

	_, err = m.Declare("g", Function, jam.Cloud)
	require.NoError(t, err)
	_, err = m.Declare("h", Function, jam.Device)
	require.NoError(t, err)

	require.NoError(t, m.MarkSideEffecting("c:h"))
	require.NoError(t, m.MarkSideEffecting("c:h"))
	assert.Equal(t, []string{"c:h"}, m.Seeds())

	m.Finalize(m.Functions(), map[string]bool{"c:h": true})
	result, err := m.SideEffectResult()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"c:g": false, "c:h": true}, result)

	g, _ := m.Global().Entry("g")
	assert.Equal(t, Pure, g.SideEffect)
	h, _ := m.Global().Entry("h")
	assert.Equal(t, Effecting, h.SideEffect)

	assert.True(t, errors.Is(m.MarkSideEffecting("c:g"), ErrFinalized))
}

func TestManager_CheckSideEffectDisabled(t *testing.T) {
	m := New(jam.JS)
	m.SetCheckSideEffect(false)
	_, err := m.Declare("f", Function, jam.Fog)
	require.NoError(t, err)
	require.NoError(t, m.MarkSideEffecting("js:f"))
	assert.Empty(t, m.Seeds())

	m.Finalize(m.Functions(), nil)
	result, err := m.SideEffectResult()
	require.NoError(t, err)
	assert.True(t, result["js:f"])
}
