// Package cache provides TTL-bounded storage for dashboard state.
//
// Two stores share the same Entry type and error values:
//   - FileStore keeps entries as JSON files and survives process restarts. The
//     cross-process navigation channel uses it to hand a drill snapshot from
//     one dashboard session to the next.
//   - MemoryStore keeps entries in an expiring LRU for the lifetime of a drill
//     controller and backs the parent-level cache used when navigating back.
//
// Keys are SHA256 digests of the query parameters (GenerateKey), so the same
// module, path and filters always land on the same entry.
package cache
