package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTracker_Add(t *testing.T) {
	tr := newTracker()

	assert.True(t, tr.Add("DebugPanel"))
	assert.True(t, tr.Has("DebugPanel"))
	assert.False(t, tr.Add("DebugPanel"), "re-adding must be a no-op")
	assert.Equal(t, []string{"DebugPanel"}, tr.Names())
}

func TestTracker_RefusesProtectedNames(t *testing.T) {
	tr := newTracker()

	for _, name := range []string{"React", "Fragment", "View", "Text", "StyleSheet", "ScrollView", "SafeAreaView"} {
		assert.False(t, tr.Add(name), "protected name %q must never be tracked", name)
		assert.False(t, tr.Has(name))
	}
	assert.False(t, tr.Add(""))
	assert.True(t, tr.Empty())
}

func TestTracker_InsertionOrder(t *testing.T) {
	tr := newTracker()
	for _, name := range []string{"c", "a", "b", "a"} {
		tr.Add(name)
	}

	assert.Equal(t, []string{"c", "a", "b"}, tr.Names())
}

func TestImportProtected(t *testing.T) {
	tests := []struct {
		name      string
		module    string
		names     []string
		protected bool
	}{
		{"react module", "react", []string{"useEffect"}, true},
		{"react-native module", "react-native", nil, true},
		{"react-dom module", "react-dom", nil, true},
		{"jsx runtime", "react/jsx-runtime", nil, true},
		{"protected local name", "./theme", []string{"StyleSheet"}, true},
		{"plain module", "./debug", []string{"DebugPanel"}, false},
		{"lodash", "lodash", []string{"merge"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.protected, importProtected(tt.module, tt.names))
		})
	}
}
