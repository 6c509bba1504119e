// Package treesitter extracts identifiers from languages with reliable
// pure-Go tree-sitter grammars (Go, TypeScript, JavaScript, Rust). Each
// extractor instance is bound to one file extension so the right grammar
// is selected without re-detecting per call.
package treesitter

import (
	"strings"

	gotreesitter "github.com/odvcencio/gotreesitter"
	"github.com/odvcencio/gotreesitter/grammars"
	classify "github.com/odvcencio/gts-suite/pkg/lang/treesitter"

	"github.com/odvcencio/aiguard/pkg/lang"
)

// Extensions are the file extensions this extractor registers for.
var Extensions = []string{".go", ".ts", ".tsx", ".js", ".jsx", ".rs"}

// Aliases for the shared node type classification maps.
var (
	declarationTypes    = classify.DeclarationNodeTypes
	nameIdentifierTypes = classify.NameIdentifierTypes
)

// containerTypes are declarations whose members are individually
// addressable as Container.member.
var containerTypes = map[string]bool{
	"class_declaration": true,
	"struct_item":       true,
	"enum_item":         true,
	"trait_item":        true,
	"impl_item":         true,
}

// Extractor implements lang.Family over a tree-sitter grammar. The bound
// filename is synthetic; only its extension matters for grammar selection.
type Extractor struct {
	filename string
}

// New returns an extractor for the given file extension (".go", ".ts", ...).
func New(ext string) *Extractor {
	return &Extractor{filename: "source" + ext}
}

// Supported reports whether a grammar is available for the extension.
func Supported(ext string) bool {
	return grammars.DetectLanguage("source"+ext) != nil
}

// Separator returns the member-access separator used in qualified names.
func (x *Extractor) Separator() string { return "." }

// ExtractIdentifier extracts a top-level declaration or a qualified
// member (Type.method) by name. Go methods are addressed by their
// receiver type: "Buffer.Len", never bare "Len".
func (x *Extractor) ExtractIdentifier(source, name string) *lang.Identifier {
	top, members := x.scan(source)
	if strings.Contains(name, ".") {
		for _, ids := range members {
			for _, id := range ids {
				if id.Name == name {
					out := id
					return &out
				}
			}
		}
		return nil
	}
	for _, id := range top {
		if id.Name == name {
			out := id
			return &out
		}
	}
	return nil
}

// ListIdentifiers returns every top-level declaration. Method names are
// receiver-qualified.
func (x *Extractor) ListIdentifiers(source string) []lang.Identifier {
	top, _ := x.scan(source)
	return top
}

// ListMembers returns the members of the named container: Go methods with
// that receiver type, or declarations nested in a class/impl block.
func (x *Extractor) ListMembers(source, container string) []lang.Identifier {
	_, members := x.scan(source)
	return members[container]
}

// ExpandPattern resolves wildcard and Container.member patterns.
func (x *Extractor) ExpandPattern(source, pattern string) []lang.Identifier {
	return lang.Expand(x, source, pattern)
}

// scan parses the source once and classifies every root-level declaration.
// Parse failures and unsupported grammars yield empty results; whole-file
// protection still works for such files.
func (x *Extractor) scan(source string) ([]lang.Identifier, map[string][]lang.Identifier) {
	src := []byte(source)
	if len(src) == 0 {
		return nil, nil
	}
	if grammars.DetectLanguage(x.filename) == nil {
		return nil, nil
	}

	bt, err := grammars.ParseFile(x.filename, src)
	if err != nil {
		return nil, nil
	}
	defer bt.Release()

	var top []lang.Identifier
	members := make(map[string][]lang.Identifier)
	seen := make(map[string]bool)

	root := bt.RootNode()
	for i := 0; i < root.ChildCount(); i++ {
		child := root.Child(i)
		if child == nil || !isDeclarationNode(bt, child) {
			continue
		}

		name, receiver := declarationName(bt, child)
		if name == "" {
			continue
		}

		qualified := name
		if receiver != "" {
			recv := receiverTypeName(receiver)
			if recv != "" {
				qualified = recv + "." + name
				id := nodeIdentifier(bt, src, child, qualified)
				members[recv] = append(members[recv], id)
				if !seen[qualified] {
					top = append(top, id)
					seen[qualified] = true
				}
				continue
			}
		}

		id := nodeIdentifier(bt, src, child, qualified)
		if !seen[qualified] {
			top = append(top, id)
			seen[qualified] = true
		}

		if containerTypes[bt.NodeType(child)] {
			collectContainerMembers(bt, src, child, name, members)
		}
	}
	return top, members
}

// nodeIdentifier builds an identifier from a node's exact byte span.
func nodeIdentifier(bt *gotreesitter.BoundTree, src []byte, node *gotreesitter.Node, name string) lang.Identifier {
	return lang.Identifier{
		Name:      name,
		Source:    string(src[node.StartByte():node.EndByte()]),
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
	}
}

// collectContainerMembers records the declarations nested one level inside
// a container node, qualified as container.member.
func collectContainerMembers(bt *gotreesitter.BoundTree, src []byte, node *gotreesitter.Node, container string, members map[string][]lang.Identifier) {
	var walk func(n *gotreesitter.Node)
	walk = func(n *gotreesitter.Node) {
		for i := 0; i < n.ChildCount(); i++ {
			child := n.Child(i)
			if child == nil {
				continue
			}
			if isDeclarationNode(bt, child) {
				name, _ := declarationName(bt, child)
				if name != "" {
					qualified := container + "." + name
					members[container] = append(members[container], nodeIdentifier(bt, src, child, qualified))
				}
				continue
			}
			walk(child)
		}
	}
	walk(node)
}

func isDeclarationNode(bt *gotreesitter.BoundTree, node *gotreesitter.Node) bool {
	nodeType := bt.NodeType(node)
	if declarationTypes[nodeType] {
		return true
	}
	if nodeType == "method_definition" {
		return true
	}
	if !node.IsNamed() || !looksLikeDeclarationNodeType(nodeType) {
		return false
	}
	return hasNameIdentifierDescendant(bt, node)
}

func looksLikeDeclarationNodeType(nodeType string) bool {
	return strings.Contains(nodeType, "declaration") ||
		strings.Contains(nodeType, "definition")
}

func hasNameIdentifierDescendant(bt *gotreesitter.BoundTree, node *gotreesitter.Node) bool {
	for i := 0; i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if nameIdentifierTypes[bt.NodeType(child)] {
			return true
		}
		if hasNameIdentifierDescendant(bt, child) {
			return true
		}
	}
	return false
}

// declarationName extracts the declaration name and, for Go methods, the
// receiver parameter text.
func declarationName(bt *gotreesitter.BoundTree, node *gotreesitter.Node) (name, receiver string) {
	switch bt.NodeType(node) {
	case "method_declaration":
		return goMethodNameReceiver(bt, node)
	case "type_declaration":
		return goTypeName(bt, node), ""
	case "var_declaration", "const_declaration":
		return goVarConstName(bt, node), ""
	case "export_statement":
		return exportedName(bt, node), ""
	default:
		return firstIdentifierName(bt, node), ""
	}
}

// firstIdentifierName finds the first descendant that looks like a name
// identifier and returns its text.
func firstIdentifierName(bt *gotreesitter.BoundTree, node *gotreesitter.Node) string {
	for i := 0; i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if nameIdentifierTypes[bt.NodeType(child)] {
			return bt.NodeText(child)
		}
		if nested := firstIdentifierName(bt, child); nested != "" {
			return nested
		}
	}
	return ""
}

// goMethodNameReceiver handles Go method_declaration nodes, whose first
// parameter_list child is the receiver.
func goMethodNameReceiver(bt *gotreesitter.BoundTree, node *gotreesitter.Node) (name, receiver string) {
	seenFirstParamList := false
	for i := 0; i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		childType := bt.NodeType(child)

		if childType == "parameter_list" && !seenFirstParamList {
			receiver = receiverText(bt, child)
			seenFirstParamList = true
			continue
		}
		if childType == "field_identifier" || nameIdentifierTypes[childType] {
			name = bt.NodeText(child)
			break
		}
	}
	return
}

// receiverText returns the receiver parameter without its parentheses,
// e.g. "(b *Buffer)" -> "b *Buffer".
func receiverText(bt *gotreesitter.BoundTree, paramList *gotreesitter.Node) string {
	for i := 0; i < paramList.NamedChildCount(); i++ {
		child := paramList.NamedChild(i)
		if bt.NodeType(child) == "parameter_declaration" {
			return bt.NodeText(child)
		}
	}
	text := bt.NodeText(paramList)
	if len(text) >= 2 && text[0] == '(' && text[len(text)-1] == ')' {
		return text[1 : len(text)-1]
	}
	return text
}

// receiverTypeName reduces a receiver parameter to its bare type name:
// "b *Buffer" -> "Buffer", "s Store[K]" -> "Store".
func receiverTypeName(receiver string) string {
	fields := strings.Fields(receiver)
	if len(fields) == 0 {
		return ""
	}
	t := fields[len(fields)-1]
	t = strings.TrimLeft(t, "*&")
	if idx := strings.IndexByte(t, '['); idx >= 0 {
		t = t[:idx]
	}
	return t
}

// goTypeName handles Go type_declaration -> type_spec -> type_identifier.
func goTypeName(bt *gotreesitter.BoundTree, node *gotreesitter.Node) string {
	for i := 0; i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if bt.NodeType(child) != "type_spec" {
			continue
		}
		for j := 0; j < child.NamedChildCount(); j++ {
			gc := child.NamedChild(j)
			if bt.NodeType(gc) == "type_identifier" {
				return bt.NodeText(gc)
			}
		}
	}
	return firstIdentifierName(bt, node)
}

// goVarConstName handles var_declaration / const_declaration via their
// spec child.
func goVarConstName(bt *gotreesitter.BoundTree, node *gotreesitter.Node) string {
	for i := 0; i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		childType := bt.NodeType(child)
		if childType == "var_spec" || childType == "const_spec" {
			return firstIdentifierName(bt, child)
		}
	}
	return firstIdentifierName(bt, node)
}

// exportedName unwraps a TypeScript/JavaScript export_statement.
func exportedName(bt *gotreesitter.BoundTree, node *gotreesitter.Node) string {
	for i := 0; i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		childType := bt.NodeType(child)
		if declarationTypes[childType] {
			n, _ := declarationName(bt, child)
			return n
		}
		if nameIdentifierTypes[childType] {
			return bt.NodeText(child)
		}
	}
	return firstIdentifierName(bt, node)
}

var _ lang.Family = (*Extractor)(nil)
