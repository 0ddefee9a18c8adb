package engine

// The protection lists are fixed at compile time. Annotations are applied by
// many hands across a codebase; a stray marker on a framework import must
// never be able to take down baseline rendering, so these are not
// configuration.

var protectedModules = map[string]struct{}{
	"react":             {},
	"react-dom":         {},
	"react-native":      {},
	"react/jsx-runtime": {},
}

var protectedIdents = map[string]struct{}{
	"React":        {},
	"Fragment":     {},
	"View":         {},
	"Text":         {},
	"StyleSheet":   {},
	"ScrollView":   {},
	"SafeAreaView": {},
}

// protectedModule reports whether a module path is on the allow-list.
func protectedModule(name string) bool {
	_, ok := protectedModules[name]
	return ok
}

// protectedIdent reports whether an identifier is on the allow-list.
func protectedIdent(name string) bool {
	_, ok := protectedIdents[name]
	return ok
}

// importProtected reports whether an import must survive regardless of
// annotation: either its module or any of its local bindings is protected.
// Every path that could add a name to the tracker consults this first.
func importProtected(module string, names []string) bool {
	if protectedModule(module) {
		return true
	}
	for _, n := range names {
		if protectedIdent(n) {
			return true
		}
	}
	return false
}
