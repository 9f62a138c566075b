package funcspan

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"
	"unsafe"

	"github.com/alexaandru/go-sitter-forest/java"
	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/python"
	"github.com/alexaandru/go-sitter-forest/tsx"
	"github.com/alexaandru/go-sitter-forest/typescript"
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	golang "github.com/alexaandru/go-sitter-forest/go"
)

// langSpec binds a tree-sitter grammar to the node types that delimit
// functions in that language.
type langSpec struct {
	language  func() unsafe.Pointer
	funcTypes map[string]struct{}
}

// extToLang maps file extensions to language names.
var extToLang = map[string]string{
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "tsx",
	".go":   "go",
	".py":   "python",
	".java": "java",
}

var langSpecs = map[string]langSpec{
	"javascript": {
		language: javascript.GetLanguage,
		funcTypes: map[string]struct{}{
			"function_declaration":           {},
			"generator_function_declaration": {},
			"method_definition":              {},
		},
	},
	"typescript": {
		language: typescript.GetLanguage,
		funcTypes: map[string]struct{}{
			"function_declaration":           {},
			"generator_function_declaration": {},
			"method_definition":              {},
		},
	},
	"tsx": {
		language: tsx.GetLanguage,
		funcTypes: map[string]struct{}{
			"function_declaration":           {},
			"generator_function_declaration": {},
			"method_definition":              {},
		},
	},
	"go": {
		language: golang.GetLanguage,
		funcTypes: map[string]struct{}{
			"function_declaration": {},
			"method_declaration":   {},
		},
	},
	"python": {
		language: python.GetLanguage,
		funcTypes: map[string]struct{}{
			"function_definition": {},
		},
	},
	"java": {
		language: java.GetLanguage,
		funcTypes: map[string]struct{}{
			"method_declaration":      {},
			"constructor_declaration": {},
		},
	},
}

// TreeSitterProvider extracts function spans using tree-sitter grammars.
// Parsers are pooled per language; the provider is safe for concurrent use.
type TreeSitterProvider struct {
	pools map[string]*sync.Pool
}

// NewTreeSitterProvider creates a provider for all supported languages.
func NewTreeSitterProvider() *TreeSitterProvider {
	pools := make(map[string]*sync.Pool, len(langSpecs))

	for name, spec := range langSpecs {
		lang := sitter.NewLanguage(spec.language())
		pools[name] = &sync.Pool{
			New: func() any {
				parser := sitter.NewParser()
				parser.SetLanguage(lang)

				return parser
			},
		}
	}

	return &TreeSitterProvider{pools: pools}
}

// Languages returns the supported language names, for capability listing.
func (p *TreeSitterProvider) Languages() []string {
	names := make([]string, 0, len(langSpecs))
	for name := range langSpecs {
		names = append(names, name)
	}

	return names
}

// Supports reports whether the provider can parse the given file.
func (p *TreeSitterProvider) Supports(canonicalPath string) bool {
	_, ok := extToLang[strings.ToLower(path.Ext(canonicalPath))]

	return ok
}

// Functions parses the source and returns all function spans, ordered by
// start line. Unsupported extensions yield an empty slice and no error.
func (p *TreeSitterProvider) Functions(ctx context.Context, canonicalPath string, source []byte) ([]Span, error) {
	langName, ok := extToLang[strings.ToLower(path.Ext(canonicalPath))]
	if !ok {
		return nil, nil
	}

	spec := langSpecs[langName]
	pool := p.pools[langName]

	parser, ok := pool.Get().(*sitter.Parser)
	if !ok {
		return nil, fmt.Errorf("funcspan: parser pool returned unexpected type for %s", langName) //nolint:err113 // names the language.
	}
	defer pool.Put(parser)

	tree, err := parser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("funcspan: parse %s: %w", canonicalPath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, nil
	}

	var spans []Span

	collectSpans(root, spec.funcTypes, canonicalPath, source, &spans)

	return spans, nil
}

// collectSpans walks the tree depth-first so that enclosing functions are
// emitted before nested ones.
func collectSpans(node sitter.Node, funcTypes map[string]struct{}, filePath string, source []byte, out *[]Span) {
	if _, isFunc := funcTypes[node.Type()]; isFunc {
		*out = append(*out, spanFromNode(node, filePath, source))
	}

	for i := range node.NamedChildCount() {
		collectSpans(node.NamedChild(i), funcTypes, filePath, source, out)
	}
}

func spanFromNode(node sitter.Node, filePath string, source []byte) Span {
	span := Span{
		Name:      "<anonymous>",
		FilePath:  filePath,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
	}

	if nameNode := node.ChildByFieldName("name"); !nameNode.IsNull() {
		span.Name = nodeText(nameNode, source)
	}

	if paramsNode := node.ChildByFieldName("parameters"); !paramsNode.IsNull() {
		for i := range paramsNode.NamedChildCount() {
			span.Parameters = append(span.Parameters, nodeText(paramsNode.NamedChild(i), source))
		}
	}

	return span
}

func nodeText(node sitter.Node, source []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if start >= end || int(end) > len(source) {
		return ""
	}

	return strings.TrimSpace(string(source[start:end]))
}
