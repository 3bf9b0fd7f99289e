// Package flows holds the pure per-attempt logic behind the public
// engine: credential validation today, kept free of UI and transport
// dependencies so it is testable in isolation.
//
// # Architecture boundaries
//
// This package owns the field rules and their messages. It must not
// import the root package, perform I/O, or hold state between calls.
package flows
