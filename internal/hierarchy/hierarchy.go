// Package hierarchy parses source files into a hierarchical sequence of
// symbol nodes carrying their full scope chain, using tree-sitter
// grammars. The indexer enriches the byte-range nodes produced here into
// 1-based line ranges and innermost-scope names.
package hierarchy

import (
	"fmt"
	"path/filepath"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Scope is one entry of a symbol's inclusive scope chain, outermost to
// innermost.
type Scope struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SymbolNode is one hierarchical symbol as produced by the parser, before
// the indexer's line/position enrichment.
type SymbolNode struct {
	StartByte       uint
	EndByte         uint
	InclusiveScopes []Scope
}

// supportedLanguages lists the tags DetectLanguage/Parse recognise.
var supportedLanguages = map[string]bool{"python": true, "javascript": true, "jsx": true, "typescript": true, "tsx": true}

// DetectLanguage maps a file extension to a language tag understood by
// Parse.
func DetectLanguage(path string) string {
	switch filepath.Ext(path) {
	case ".py", ".pyi", ".pyw":
		return "python"
	case ".js", ".mjs", ".cjs":
		return "javascript"
	case ".jsx":
		return "jsx"
	case ".ts", ".mts", ".cts":
		return "typescript"
	case ".tsx":
		return "tsx"
	default:
		return ""
	}
}

// Parse produces the hierarchical symbol sequence for source under the
// given language tag. For a language Parse doesn't recognise it returns a
// single module-level node spanning the whole file, per the adapter's
// unsupported-language contract; it never errors on that account.
func Parse(source []byte, language, path string) ([]SymbolNode, error) {
	if !supportedLanguages[language] {
		return []SymbolNode{moduleNode(source)}, nil
	}

	parser := sitter.NewParser()
	if parser == nil {
		return nil, fmt.Errorf("hierarchy: failed to create tree-sitter parser")
	}
	defer parser.Close()

	lang, err := languageFor(language)
	if err != nil {
		return nil, err
	}
	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("hierarchy: set language %s: %w", language, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("hierarchy: failed to parse %s", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	nodes := []SymbolNode{moduleNode(source)}

	switch language {
	case "python":
		walkPython(root, source, nil, &nodes)
	case "javascript", "jsx":
		walkJSLike(root, source, nil, &nodes)
	case "typescript", "tsx":
		walkJSLike(root, source, nil, &nodes)
	}

	return nodes, nil
}

func languageFor(language string) (*sitter.Language, error) {
	switch language {
	case "python":
		return sitter.NewLanguage(tree_sitter_python.Language()), nil
	case "javascript", "jsx":
		return sitter.NewLanguage(tree_sitter_javascript.Language()), nil
	case "typescript":
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()), nil
	case "tsx":
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()), nil
	default:
		return nil, fmt.Errorf("hierarchy: unsupported language %s", language)
	}
}

func moduleNode(source []byte) SymbolNode {
	return SymbolNode{StartByte: 0, EndByte: uint(len(source)), InclusiveScopes: nil}
}

func childText(node *sitter.Node, field string, source []byte) string {
	n := node.ChildByFieldName(field)
	if n == nil {
		return ""
	}
	return string(source[n.StartByte():n.EndByte()])
}

func appendScope(chain []Scope, name, typ string) []Scope {
	out := make([]Scope, len(chain), len(chain)+1)
	copy(out, chain)
	return append(out, Scope{Name: name, Type: typ})
}

func walkPython(node *sitter.Node, source []byte, scopes []Scope, out *[]SymbolNode) {
	if node == nil {
		return
	}
	childScopes := scopes
	switch node.Kind() {
	case "function_definition":
		name := childText(node, "name", source)
		if name != "" {
			childScopes = appendScope(scopes, name, "function")
			*out = append(*out, SymbolNode{StartByte: node.StartByte(), EndByte: node.EndByte(), InclusiveScopes: childScopes})
		}
	case "class_definition":
		name := childText(node, "name", source)
		if name != "" {
			childScopes = appendScope(scopes, name, "class")
			*out = append(*out, SymbolNode{StartByte: node.StartByte(), EndByte: node.EndByte(), InclusiveScopes: childScopes})
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walkPython(node.Child(i), source, childScopes, out)
	}
}

func walkJSLike(node *sitter.Node, source []byte, scopes []Scope, out *[]SymbolNode) {
	if node == nil {
		return
	}
	childScopes := scopes
	switch node.Kind() {
	case "function_declaration", "generator_function_declaration":
		name := childText(node, "name", source)
		if name != "" {
			childScopes = appendScope(scopes, name, "function")
			*out = append(*out, SymbolNode{StartByte: node.StartByte(), EndByte: node.EndByte(), InclusiveScopes: childScopes})
		}
	case "class_declaration":
		name := childText(node, "name", source)
		if name != "" {
			childScopes = appendScope(scopes, name, "class")
			*out = append(*out, SymbolNode{StartByte: node.StartByte(), EndByte: node.EndByte(), InclusiveScopes: childScopes})
		}
	case "method_definition":
		name := childText(node, "name", source)
		if name != "" {
			childScopes = appendScope(scopes, name, "method")
			*out = append(*out, SymbolNode{StartByte: node.StartByte(), EndByte: node.EndByte(), InclusiveScopes: childScopes})
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		walkJSLike(node.Child(i), source, childScopes, out)
	}
}
