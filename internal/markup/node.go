package markup

import (
	"strings"

	"github.com/hashicorp/hcl/v2"
)

// Attr is a single name/value pair of a Node, in template form.
type Attr struct {
	Name  string
	Value string
	Range hcl.Range
}

// Node is one element of a build file.
type Node struct {
	Name     string
	Labels   []string
	Attrs    []Attr
	Children []*Node
	Range    hcl.Range
}

// Attr returns the attribute with the given name.
func (n *Node) Attr(name string) (Attr, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attr{}, false
}

// ChildrenNamed returns the direct children with the given name, in document
// order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// Unescape turns template text back into the literal string it represents,
// without evaluating any interpolation.
func Unescape(text string) string {
	text = strings.ReplaceAll(text, "$${", "${")
	return strings.ReplaceAll(text, "%%{", "%{")
}

// Escape is the inverse of Unescape.
func Escape(text string) string {
	text = strings.ReplaceAll(text, "${", "$${")
	return strings.ReplaceAll(text, "%{", "%%{")
}
