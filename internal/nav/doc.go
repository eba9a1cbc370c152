// Package nav carries a dashboard's drill position across a round trip to an
// unrelated page and back.
//
// Before navigating away, the dashboard captures a Snapshot and attaches it
// to the outbound transition's payload through a Bridge. The destination page
// hands the payload back when it returns to the origin route. On return the
// dashboard consumes the payload at most once and restores the snapshot,
// truncating a path that no longer fits its schema.
package nav
