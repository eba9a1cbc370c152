// Package view keeps a module's summary and detail drill states in step when
// the user toggles between the chart and the table.
package view
