// Package build turns a loaded build file into a running build: it binds the
// <project> element and its targets, runs the project's top-level tasks and
// then each requested target in order.
//
// A Build owns one async engine. Units still unjoined when the targets are
// done are joined before Run returns, so no output is lost.
package build
