// Package expand evaluates `${...}` placeholders in attribute text against a
// set of build properties.
//
// Text is parsed as an HCL string template. Property names may be dotted
// ("build.dir"); each segment becomes a nested object so that the natural
// traversal syntax `${build.dir}` works. Names that cannot be reached that
// way (because "build" is also a property on its own) stay reachable through
// the `property("build.dir")` function. A small set of string functions from
// go-cty's stdlib is available as well.
package expand

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/anvil/internal/markup"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Expander expands template text.
type Expander struct {
	funcs map[string]function.Function
}

// New creates an Expander with the standard function table.
func New() *Expander {
	return &Expander{funcs: map[string]function.Function{
		"upper":         stdlib.UpperFunc,
		"lower":         stdlib.LowerFunc,
		"title":         stdlib.TitleFunc,
		"trim":          stdlib.TrimFunc,
		"trimspace":     stdlib.TrimSpaceFunc,
		"trimprefix":    stdlib.TrimPrefixFunc,
		"trimsuffix":    stdlib.TrimSuffixFunc,
		"chomp":         stdlib.ChompFunc,
		"indent":        stdlib.IndentFunc,
		"strlen":        stdlib.StrlenFunc,
		"substr":        stdlib.SubstrFunc,
		"reverse":       stdlib.ReverseFunc,
		"format":        stdlib.FormatFunc,
		"formatlist":    stdlib.FormatListFunc,
		"replace":       stdlib.ReplaceFunc,
		"regex_replace": stdlib.RegexReplaceFunc,
		"join":          stdlib.JoinFunc,
		"split":         stdlib.SplitFunc,
		"sort":          stdlib.SortFunc,
	}}
}

// Expand evaluates text against props and returns the resulting string.
// Text without placeholders is returned unescaped without parsing.
func (x *Expander) Expand(text string, props map[string]string) (string, error) {
	if !strings.Contains(text, "${") && !strings.Contains(text, "%{") {
		return text, nil
	}
	if !needsEvaluation(text) {
		return markup.Unescape(text), nil
	}

	expr, diags := hclsyntax.ParseTemplate([]byte(text), "<expansion>", hcl.Pos{Line: 1, Column: 1, Byte: 0})
	if diags.HasErrors() {
		return "", fmt.Errorf("cannot parse %q: %w", text, diags)
	}

	val, diags := expr.Value(x.evalContext(props))
	if diags.HasErrors() {
		return "", fmt.Errorf("cannot expand %q: %w", text, diags)
	}
	if val.IsNull() {
		return "", nil
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("cannot expand %q: result is %s, not a string", text, val.Type().FriendlyName())
	}
	return str.AsString(), nil
}

// needsEvaluation reports whether text holds at least one unescaped
// template introducer.
func needsEvaluation(text string) bool {
	for i := 0; i+1 < len(text); i++ {
		c := text[i]
		if (c == '$' || c == '%') && text[i+1] == c && i+2 < len(text) && text[i+2] == '{' {
			i += 2
			continue
		}
		if (c == '$' || c == '%') && text[i+1] == '{' {
			return true
		}
	}
	return false
}

func (x *Expander) evalContext(props map[string]string) *hcl.EvalContext {
	funcs := make(map[string]function.Function, len(x.funcs)+2)
	for k, v := range x.funcs {
		funcs[k] = v
	}
	funcs["property"] = lookupFunc(props)
	funcs["exists"] = existsFunc(props)

	return &hcl.EvalContext{
		Variables: variables(props),
		Functions: funcs,
	}
}

type tree struct {
	value *string
	kids  map[string]*tree
}

// variables turns dotted property names into nested cty objects. When a
// name is both a value and a prefix of other names, the nested object wins.
func variables(props map[string]string) map[string]cty.Value {
	root := &tree{kids: map[string]*tree{}}
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		v := props[name]
		node := root
		for _, seg := range strings.Split(name, ".") {
			if node.kids == nil {
				node.kids = map[string]*tree{}
			}
			next, ok := node.kids[seg]
			if !ok {
				next = &tree{}
				node.kids[seg] = next
			}
			node = next
		}
		node.value = &v
	}

	out := make(map[string]cty.Value, len(root.kids))
	for k, t := range root.kids {
		out[k] = t.cty()
	}
	return out
}

func (t *tree) cty() cty.Value {
	if len(t.kids) == 0 {
		if t.value == nil {
			return cty.NullVal(cty.String)
		}
		return cty.StringVal(*t.value)
	}
	attrs := make(map[string]cty.Value, len(t.kids))
	for k, kid := range t.kids {
		attrs[k] = kid.cty()
	}
	return cty.ObjectVal(attrs)
}

func lookupFunc(props map[string]string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "name", Type: cty.String}},
		Type:   function.StaticReturnType(cty.String),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			name := args[0].AsString()
			v, ok := props[name]
			if !ok {
				return cty.NilVal, fmt.Errorf("property %q has not been set", name)
			}
			return cty.StringVal(v), nil
		},
	})
}

func existsFunc(props map[string]string) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "name", Type: cty.String}},
		Type:   function.StaticReturnType(cty.Bool),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			_, ok := props[args[0].AsString()]
			return cty.BoolVal(ok), nil
		},
	})
}
