package markup

import (
	"github.com/hashicorp/hcl/v2"
)

// FindUnique searches nodes for the one named name. It returns a diagnostic
// for every duplicate. If no node is found, it returns nil.
func FindUnique(nodes []*Node, name string) (*Node, hcl.Diagnostics) {
	var found *Node
	var diags hcl.Diagnostics

	for _, n := range nodes {
		if n.Name != name {
			continue
		}
		if found != nil {
			rng := n.Range
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Duplicate \"" + name + "\" element",
				Detail:   "Only one <" + name + "> element is allowed.",
				Subject:  &rng,
			})
		}
		found = n
	}

	return found, diags
}
