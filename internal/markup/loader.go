package markup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/vk/anvil/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Document is a parsed build file.
type Document struct {
	// Root is a synthetic, unnamed node holding the file's top-level content.
	Root      *Node
	Locations *LocationMap
	// Files holds the parsed sources keyed by filename, for diagnostic
	// rendering.
	Files map[string]*hcl.File
}

// Loader parses HCL build files into Documents.
type Loader struct {
	parser *hclparse.Parser
}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{parser: hclparse.NewParser()}
}

// LoadFile reads and parses the build file at path.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Document, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading build file.", "path", path)

	file, diags := l.parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse build file %s: %w", path, diags)
	}
	return l.document(ctx, file, path)
}

// Parse parses src as if it were read from filename.
func (l *Loader) Parse(ctx context.Context, src []byte, filename string) (*Document, error) {
	file, diags := l.parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse build file %s: %w", filename, diags)
	}
	return l.document(ctx, file, filename)
}

func (l *Loader) document(ctx context.Context, file *hcl.File, filename string) (*Document, error) {
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("build file %s is not in native HCL syntax", filename)
	}

	c := &converter{src: file.Bytes, locs: NewLocationMap()}
	root, diags := c.node("", nil, body, body.SrcRange)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read build file %s: %w", filename, diags)
	}

	ctxlog.FromContext(ctx).Debug("Build file loaded.", "path", filename, "nodes", c.locs.Len())
	return &Document{Root: root, Locations: c.locs, Files: l.parser.Files()}, nil
}

type converter struct {
	src  []byte
	locs *LocationMap
}

func (c *converter) node(name string, labels []string, body *hclsyntax.Body, rng hcl.Range) (*Node, hcl.Diagnostics) {
	var diags hcl.Diagnostics
	n := &Node{Name: name, Labels: labels, Range: rng}
	c.locs.Add(n, LocationFromRange(rng))

	attrs := make([]*hclsyntax.Attribute, 0, len(body.Attributes))
	for _, a := range body.Attributes {
		attrs = append(attrs, a)
	}
	sort.Slice(attrs, func(i, j int) bool {
		return attrs[i].SrcRange.Start.Byte < attrs[j].SrcRange.Start.Byte
	})

	for _, a := range attrs {
		text, d := c.text(a.Expr)
		diags = append(diags, d...)
		if d.HasErrors() {
			continue
		}
		n.Attrs = append(n.Attrs, Attr{Name: a.Name, Value: text, Range: a.SrcRange})
	}

	for _, b := range body.Blocks {
		child, d := c.node(b.Type, b.Labels, b.Body, b.TypeRange)
		diags = append(diags, d...)
		n.Children = append(n.Children, child)
	}
	return n, diags
}

// text renders an attribute expression as template text. String literals and
// templates keep their interpolations verbatim; other literal values are
// converted to their string form.
func (c *converter) text(expr hclsyntax.Expression) (string, hcl.Diagnostics) {
	switch e := expr.(type) {
	case *hclsyntax.TemplateExpr:
		if e.IsStringLiteral() {
			v, diags := e.Value(nil)
			if diags.HasErrors() {
				return "", diags
			}
			return Escape(v.AsString()), nil
		}
		var sb strings.Builder
		for _, part := range e.Parts {
			if lit, ok := part.(*hclsyntax.LiteralValueExpr); ok && lit.Val.Type() == cty.String {
				sb.WriteString(Escape(lit.Val.AsString()))
				continue
			}
			src, diags := c.interpolation(part)
			if diags.HasErrors() {
				return "", diags
			}
			sb.WriteString(src)
		}
		return sb.String(), nil
	case *hclsyntax.TemplateWrapExpr:
		return c.interpolation(e.Wrapped)
	case *hclsyntax.TemplateJoinExpr:
		return "", unsupported(expr.Range(), "Template directives are not supported in build files.")
	}

	v, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", unsupported(expr.Range(), "Attribute values must be literal values or string templates.")
	}
	if v.IsNull() {
		return "", nil
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return "", unsupported(expr.Range(), fmt.Sprintf("A %s value cannot be used as an attribute value.", v.Type().FriendlyName()))
	}
	return Escape(s.AsString()), nil
}

func (c *converter) interpolation(expr hclsyntax.Expression) (string, hcl.Diagnostics) {
	rng := expr.Range()
	if rng.Start.Byte < 0 || rng.End.Byte > len(c.src) || rng.Start.Byte > rng.End.Byte {
		return "", unsupported(rng, "Interpolation source is unavailable.")
	}
	raw := string(c.src[rng.Start.Byte:rng.End.Byte])
	if strings.HasPrefix(raw, "%{") {
		return "", unsupported(rng, "Template directives are not supported in build files.")
	}
	return "${" + raw + "}", nil
}

func unsupported(rng hcl.Range, detail string) hcl.Diagnostics {
	return hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  "Unsupported attribute value",
		Detail:   detail,
		Subject:  &rng,
	}}
}
