// Package registry maps element names used in build files to the Go types
// that implement them.
//
// Modules register their tasks and datatypes at startup. The registry is
// then validated once, which forces every binding specification to be built
// so that tag mistakes surface before any build file is read.
package registry
