// Package markup turns HCL build files into a format-agnostic tree of
// Nodes and records where each node came from.
//
// A block becomes a Node: the block type is the node name, block labels are
// kept in order as positional labels, body attributes become ordered
// attributes and nested blocks become ordered children. Attribute values are
// kept as template text so that later stages can expand `${...}` placeholders
// against build properties. Literal text that happens to contain a template
// introducer is escaped (`$${`, `%%{`) so the round trip is lossless.
//
// Every node produced by the Loader is recorded in a LocationMap, which
// binders use to attach a human-readable source position to diagnostics.
package markup
