// Package pagination holds page/sort parameters for detail tables and the
// metadata rendered in their footers and JSON output.
//
// Summary views are never paginated; a zero Params means "not paged".
package pagination
