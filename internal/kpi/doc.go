// Package kpi defines the analytics modules of the dashboard: their drill
// hierarchies, one concrete row type per (module, entity kind), and the
// catalog that decodes and builds those rows at the gateway boundary.
package kpi
