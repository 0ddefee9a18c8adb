package engine

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"excise/internal/printer"
	"excise/pkg/ast"
	"excise/pkg/parser"
)

// pruneSource parses src as TSX, runs a restricted pass and splices the
// resulting edits back into the source.
func pruneSource(t *testing.T, src string, opts Options) (*Result, string) {
	t.Helper()

	psr := parser.New()
	defer psr.Close()

	file, err := psr.Parse([]byte(src), parser.LangTSX, "test.tsx")
	require.NoError(t, err)

	res, err := Prune(file, true, opts)
	require.NoError(t, err)

	out, err := printer.Apply([]byte(src), res.Edits)
	require.NoError(t, err)
	return res, string(out)
}

func TestPrune_AnnotatedImport(t *testing.T) {
	src := `import React from 'react';
// @internal-only
import DebugConsole from './debug/console';

export const App = () => <React.Fragment />;
`
	res, out := pruneSource(t, src, DefaultOptions())

	assert.Equal(t, []string{"DebugConsole"}, res.Removed)
	assert.NotContains(t, out, "DebugConsole")
	assert.NotContains(t, out, "@internal-only")
	assert.Contains(t, out, "import React from 'react';")
}

func TestPrune_ProtectedImportsRetained(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{
			name: "react default import",
			src:  "// @internal-only\nimport React from 'react';\n",
		},
		{
			name: "react-native named imports",
			src:  "// @internal-only\nimport { View, Text, StyleSheet } from 'react-native';\n",
		},
		{
			name: "protected local name from arbitrary module",
			src:  "// @internal-only\nimport { StyleSheet } from './theme';\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, out := pruneSource(t, tt.src, DefaultOptions())

			assert.Empty(t, res.Removed)
			assert.False(t, res.Pruned())
			assert.Equal(t, tt.src, out)
		})
	}
}

func TestPrune_InternalModeBypass(t *testing.T) {
	src := "// @internal-only\nconst secret = 1;\n"

	psr := parser.New()
	defer psr.Close()
	file, err := psr.Parse([]byte(src), parser.LangTSX, "test.tsx")
	require.NoError(t, err)

	res, err := Prune(file, false, DefaultOptions())
	require.NoError(t, err)

	assert.False(t, res.Pruned())
	assert.Empty(t, res.Removed)
}

func TestPrune_MalformedTree(t *testing.T) {
	_, err := Prune(nil, true, DefaultOptions())
	assert.ErrorIs(t, err, ErrMalformedTree)

	_, err = Prune(&ast.File{Path: "x.tsx", Root: &ast.Node{Kind: ast.KindExpr}}, true, DefaultOptions())
	assert.ErrorIs(t, err, ErrMalformedTree)
}

func TestPrune_AnnotatedDeclarations(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		removed []string
		gone    []string
		kept    []string
	}{
		{
			name: "function declaration",
			src: `// @internal-only
function auditLog(entry) { return entry; }
function publicThing() { return 1; }
`,
			removed: []string{"auditLog"},
			gone:    []string{"auditLog"},
			kept:    []string{"publicThing"},
		},
		{
			name: "const declaration",
			src: `// @internal-only
const adminToken = 'x';
const greeting = 'hi';
`,
			removed: []string{"adminToken"},
			gone:    []string{"adminToken"},
			kept:    []string{"greeting"},
		},
		{
			name: "trailing same-line annotation",
			src:  "const adminToken = 'x'; // @internal-only\nconst greeting = 'hi';\n",
			removed: []string{
				"adminToken",
			},
			gone: []string{"adminToken"},
			kept: []string{"greeting"},
		},
		{
			name: "class method",
			src: `class Session {
  // @internal-only
  impersonate(user) { return user; }
  login() { return true; }
}
`,
			removed: []string{"impersonate"},
			gone:    []string{"impersonate"},
			kept:    []string{"login"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, out := pruneSource(t, tt.src, DefaultOptions())

			assert.Equal(t, tt.removed, res.Removed)
			for _, g := range tt.gone {
				assert.NotContains(t, out, g)
			}
			for _, k := range tt.kept {
				assert.Contains(t, out, k)
			}
			assert.NotContains(t, out, "@internal-only")
		})
	}
}

func TestPrune_SingleDeclaratorInList(t *testing.T) {
	src := "const /* @internal-only */ adminToken = 'x', greeting = 'hi';\n"

	res, out := pruneSource(t, src, DefaultOptions())

	assert.Equal(t, []string{"adminToken"}, res.Removed)
	assert.NotContains(t, out, "adminToken")
	assert.Contains(t, out, "greeting")
	assert.Contains(t, out, "const")
}

func TestPrune_CascadeToUsage(t *testing.T) {
	src := `import { View, Text } from 'react-native';
// @internal-only
import DebugPanel from './debug';

export const Screen = () => (
  <View>
    <DebugPanel verbose={true} />
    <Text>hello</Text>
  </View>
);
`
	res, out := pruneSource(t, src, DefaultOptions())

	assert.Equal(t, []string{"DebugPanel"}, res.Removed)
	assert.NotContains(t, out, "DebugPanel")
	assert.Contains(t, out, "<Text>hello</Text>")
	assert.Contains(t, out, "<View>")
}

func TestPrune_MemberTagCascade(t *testing.T) {
	src := `// @internal-only
import Debug from './debug';

export const Screen = () => (
  <View>
    <Debug.Panel />
  </View>
);
`
	res, out := pruneSource(t, src, DefaultOptions())

	assert.Equal(t, []string{"Debug"}, res.Removed)
	assert.NotContains(t, out, "Debug.Panel")
	assert.Contains(t, out, "<View>")
}

func TestPrune_ReferenceRewrite(t *testing.T) {
	src := `// @internal-only
const secretConfig = { key: 'x' };

export function setup() {
  return initialize(secretConfig);
}
`
	res, out := pruneSource(t, src, DefaultOptions())

	assert.Equal(t, []string{"secretConfig"}, res.Removed)
	assert.Contains(t, out, "initialize(undefined)")
	assert.NotContains(t, out, "secretConfig")
}

func TestPrune_AliasPropagation(t *testing.T) {
	src := `// @internal-only
const internalRoutes = ['/admin'];
const routes = internalRoutes;
const fallback = routes;
const merged = [internalRoutes, '/home'];
`
	res, out := pruneSource(t, src, DefaultOptions())

	// A direct alias of an annotated declaration is removed and tracked.
	// The chain stops there: a second hop keeps its declaration, and the
	// dangling reference is rewritten, as is a reference inside a larger
	// expression.
	assert.Equal(t, []string{"internalRoutes", "routes"}, res.Removed)
	assert.NotContains(t, out, "const routes")
	assert.Contains(t, out, "const fallback = undefined;")
	assert.Contains(t, out, "const merged = [undefined, '/home'];")
}

func TestPrune_GuardCollapse(t *testing.T) {
	tests := []struct {
		name string
		src  string
		opts Options
	}{
		{
			name: "mode flag guard",
			src: `export const Bar = () => (
  <View>
    {
      // @internal-only
      __INTERNAL__ && <DebugBar />
    }
  </View>
);
`,
			opts: DefaultOptions(),
		},
		{
			name: "custom mode flag",
			src: `export const Bar = () => (
  <View>
    {
      // @internal-only
      STAFF_BUILD && <DebugBar />
    }
  </View>
);
`,
			opts: Options{Marker: "@internal-only", ModeFlag: "STAFF_BUILD"},
		},
		{
			name: "tracked name guard",
			src: `// @internal-only
const showDebug = true;
export const Bar = () => (
  <View>
    {
      // @internal-only
      showDebug && <DebugBar />
    }
  </View>
);
`,
			opts: DefaultOptions(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out := pruneSource(t, tt.src, tt.opts)

			assert.Contains(t, out, "false")
			assert.NotContains(t, out, "DebugBar")
			assert.NotContains(t, out, "&&")
			assert.Contains(t, out, "<View>")
		})
	}
}

func TestPrune_UnannotatedGuardKept(t *testing.T) {
	src := `export const Bar = () => (
  <View>
    {__INTERNAL__ && <DebugBar />}
  </View>
);
`
	res, out := pruneSource(t, src, DefaultOptions())

	assert.False(t, res.Pruned())
	assert.Contains(t, out, "__INTERNAL__ && <DebugBar />")
}

func TestPrune_LineHeuristic(t *testing.T) {
	t.Run("next line removed", func(t *testing.T) {
		src := `export const Screen = () => (
  <View>
    {/* @internal-only */}
    <DebugBar />
    <Text>hello</Text>
  </View>
);
`
		_, out := pruneSource(t, src, DefaultOptions())

		assert.NotContains(t, out, "DebugBar")
		assert.NotContains(t, out, "@internal-only")
		assert.Contains(t, out, "<Text>hello</Text>")
	})

	t.Run("same line removed", func(t *testing.T) {
		// The window spans the annotation line and the one below it, so
		// the surviving sibling sits two lines down.
		src := `export const Screen = () => (
  <View>
    {/* @internal-only */}<DebugBar />

    <Text>hello</Text>
  </View>
);
`
		_, out := pruneSource(t, src, DefaultOptions())

		assert.NotContains(t, out, "DebugBar")
		assert.Contains(t, out, "<Text>hello</Text>")
	})

	t.Run("two lines away kept", func(t *testing.T) {
		src := `export const Screen = () => (
  <View>
    {/* @internal-only */}

    <ReleaseBar />
  </View>
);
`
		_, out := pruneSource(t, src, DefaultOptions())

		assert.Contains(t, out, "<ReleaseBar />")
		assert.NotContains(t, out, "@internal-only")
	})

	// Elements further below the annotation must survive no matter how far
	// they sit; only the immediate next line is in scope.
	t.Run("boundary holds at any offset", func(t *testing.T) {
		for offset := 2; offset <= 5; offset++ {
			src := "export const Screen = () => (\n  <View>\n    {/* @internal-only */}\n" +
				strings.Repeat("\n", offset-1) +
				"    <KeepMe />\n  </View>\n);\n"
			_, out := pruneSource(t, src, DefaultOptions())

			assert.Contains(t, out, "<KeepMe />", "offset %d", offset)
		}
	})

	// Removal stops at the annotated element; unannotated siblings on the
	// following lines are never collateral.
	t.Run("siblings after removed element kept", func(t *testing.T) {
		src := `export const Screen = () => (
  <View>
    {/* @internal-only */}
    <DebugBar />
    <Text>hello</Text>
    <ReleaseBar />
  </View>
);
`
		_, out := pruneSource(t, src, DefaultOptions())

		assert.NotContains(t, out, "DebugBar")
		assert.Contains(t, out, "<Text>hello</Text>")
		assert.Contains(t, out, "<ReleaseBar />")
	})
}

func TestPrune_JSXInExpressionBecomesNull(t *testing.T) {
	// An element pinned inside an expression cannot be deleted outright;
	// the slot is filled with null instead.
	src := `export const Screen = () => (
  <Modal content={
    // @internal-only
    <DebugBar />
  } />
);
`
	_, out := pruneSource(t, src, DefaultOptions())

	assert.NotContains(t, out, "DebugBar")
	assert.Contains(t, out, "null")
	assert.Contains(t, out, "<Modal")
}

func TestPrune_StyleTableCascade(t *testing.T) {
	src := `import { View, StyleSheet } from 'react-native';

const styles = StyleSheet.create({
  container: { flex: 1 },
  // @internal-only
  debugPanel: { borderColor: 'red' },
});

export const Screen = () => (
  <View style={styles.container}>
    <View style={styles.debugPanel} />
  </View>
);
`
	res, out := pruneSource(t, src, DefaultOptions())

	assert.Equal(t, []string{"styles.debugPanel"}, res.Removed)
	assert.NotContains(t, out, "debugPanel")
	assert.Contains(t, out, "styles.container")
	assert.Contains(t, out, "StyleSheet.create")
}

func TestPrune_StyleTableCustomConstructor(t *testing.T) {
	src := `const theme = makeTheme({
  base: { padding: 4 },
  // @internal-only
  adminBadge: { color: 'red' },
});
`
	opts := Options{
		Marker:      "@internal-only",
		ModeFlag:    "__INTERNAL__",
		StyleTables: []string{"makeTheme"},
	}
	res, out := pruneSource(t, src, opts)

	assert.Equal(t, []string{"theme.adminBadge"}, res.Removed)
	assert.NotContains(t, out, "adminBadge")
	assert.Contains(t, out, "base: { padding: 4 }")
}

func TestPrune_CustomMarker(t *testing.T) {
	src := `// @acme-private
const internalFlag = true;
// @internal-only
const otherFlag = true;
`
	opts := Options{Marker: "@acme-private", ModeFlag: "__INTERNAL__"}
	res, out := pruneSource(t, src, opts)

	assert.Equal(t, []string{"internalFlag"}, res.Removed)
	assert.Contains(t, out, "otherFlag")
	assert.Contains(t, out, "@internal-only")
}

func TestPrune_RemovedOrderIsDocumentOrder(t *testing.T) {
	src := `// @internal-only
const first = 1;
// @internal-only
function second() {}
// @internal-only
const third = 3;
`
	res, _ := pruneSource(t, src, DefaultOptions())

	assert.Equal(t, []string{"first", "second", "third"}, res.Removed)
}

func TestPrune_Idempotent(t *testing.T) {
	sources := []string{
		"// @internal-only\nimport Debug from './debug';\nexport const x = 1;\n",
		"// @internal-only\nconst secret = 1;\nconsole.log(secret);\n",
		`export const Screen = () => (
  <View>
    {/* @internal-only */}
    <DebugBar />
    <Text>hello</Text>
  </View>
);
`,
		`export const Bar = () => (
  <View>
    {
      // @internal-only
      __INTERNAL__ && <DebugBar />
    }
  </View>
);
`,
	}

	for _, src := range sources {
		_, once := pruneSource(t, src, DefaultOptions())
		res, twice := pruneSource(t, once, DefaultOptions())

		assert.False(t, res.Pruned(), "second pass changed output:\n%s", once)
		assert.Equal(t, once, twice)
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Equal(t, "@internal-only", opts.Marker)
	assert.Equal(t, "__INTERNAL__", opts.ModeFlag)
	assert.Equal(t, []string{"StyleSheet.create"}, opts.StyleTables)
}

func TestPrune_PartialOptionsKeepSetFields(t *testing.T) {
	// A custom mode flag with an unset marker: the marker defaults, the
	// flag must not be clobbered back to the default.
	src := `export const Bar = () => (
  <View>
    {
      // @internal-only
      STAFF_BUILD && <DebugBar />
    }
  </View>
);
`
	_, out := pruneSource(t, src, Options{ModeFlag: "STAFF_BUILD"})

	assert.NotContains(t, out, "DebugBar")
	assert.Contains(t, out, "false")
	assert.NotContains(t, out, "@internal-only")
}
