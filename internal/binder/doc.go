// Package binder turns markup nodes into bound elements.
//
// Binding is driven entirely by the target type's schema.Spec: framework
// settings, labels, attributes, nested elements and collections are bound in
// declaration order. Attribute text is expanded against the project
// properties, validated and coerced into the field's Go type. Nested
// DataType instances carrying a refid are swapped for the shared instance
// registered under that ID.
//
// Structural problems stop the bind and return a *diag.ConfigError. Input
// that is present but never consumed by any binding is only reported, as
// informational log records.
package binder
