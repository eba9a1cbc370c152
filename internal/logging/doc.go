// Package logging wires zerolog for freightdash.
//
// Loggers are carried on the context (zerolog's WithContext/Ctx) together with
// a per-invocation trace ID. Every event written through a logger built by this
// package is stamped with that trace ID, so a single dashboard session can be
// followed across drill transitions, gateway calls and page navigations.
//
// The interactive dashboard owns the terminal, so the CLI normally routes logs
// to a file; NewLoggerWithPath falls back to stderr when the file cannot be opened.
package logging
