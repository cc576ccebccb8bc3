// Package element defines the bound side of a build: the Base every bound
// object embeds, the Project context they all share, and the DataType
// contract for instances that can be declared once and referenced by ID.
package element
