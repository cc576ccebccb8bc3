// Package schema derives binding specifications from Go struct tags.
//
// A bindable type declares its markup surface with `anvil` tags:
//
//	type Copy struct {
//		task.Base
//		File    string     `anvil:"file,attr,required"`
//		Mode    Mode       `anvil:"mode,attr"`
//		Files   *FileSet   `anvil:"fileset,element"`
//		Filters []*Filter  `anvil:"filter,elements"`
//		Tool    string     `anvil:"tool,framework"`
//	}
//
// The first tag segment is the markup name, the second the binding kind:
//
//	attr        an attribute of the element
//	label       a positional block label, falling back to the attribute
//	            of the same name
//	framework   a framework configuration setting
//	element     a single nested element
//	elements    repeated nested elements (flat collection)
//	collection  one wrapper element holding the members (item=<name>)
//	children    the unclaimed nested elements, kept as markup for later
//
// Options are required, noexpand (attr, label, framework) and existing
// (element: rebind the instance the field already holds).
//
// A `validate` tag adds value validators and a `deprecated` tag marks an
// attribute as deprecated with a warn or error severity.
//
// Specs are built once per type and cached; they are immutable afterwards.
// Mistakes in tags are programming errors and panic during the scan, except
// for collection fields whose Go shape cannot hold members: those are
// recorded on the spec and reported when the field is actually bound.
package schema
