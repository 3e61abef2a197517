package hierarchy

import "testing"

func TestDetectLanguage(t *testing.T) {
	cases := map[string]string{
		"a/b.py":  "python",
		"a/b.ts":  "typescript",
		"a/b.tsx": "tsx",
		"a/b.js":  "javascript",
		"a/b.rb":  "",
	}
	for path, want := range cases {
		if got := DetectLanguage(path); got != want {
			t.Errorf("DetectLanguage(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestParseUnsupportedLanguageFallsBackToModuleNode(t *testing.T) {
	src := []byte("puts 'hello'\n")
	nodes, err := Parse(src, "ruby", "a/b.rb")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected exactly one fallback node, got %d", len(nodes))
	}
	if nodes[0].StartByte != 0 || nodes[0].EndByte != uint(len(src)) {
		t.Fatalf("expected fallback node to span whole file, got %+v", nodes[0])
	}
	if len(nodes[0].InclusiveScopes) != 0 {
		t.Fatalf("expected empty scope chain for module-level fallback node")
	}
}

func TestParsePythonProducesNestedScopes(t *testing.T) {
	src := []byte("class Foo:\n    def bar(self):\n        return 1\n")
	nodes, err := Parse(src, "python", "a/b.py")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var sawClass, sawMethod bool
	for _, n := range nodes {
		if len(n.InclusiveScopes) == 1 && n.InclusiveScopes[0] == (Scope{Name: "Foo", Type: "class"}) {
			sawClass = true
		}
		if len(n.InclusiveScopes) == 2 &&
			n.InclusiveScopes[0] == (Scope{Name: "Foo", Type: "class"}) &&
			n.InclusiveScopes[1] == (Scope{Name: "bar", Type: "function"}) {
			sawMethod = true
		}
	}
	if !sawClass {
		t.Errorf("expected a class-scope node for Foo, got %+v", nodes)
	}
	if !sawMethod {
		t.Errorf("expected a nested function-scope node for Foo.bar, got %+v", nodes)
	}
}
