// Package gateway provides drill.Gateway implementations: an HTTP client for
// the ERP analytics API and an in-memory fixture dataset for demos and tests.
package gateway
