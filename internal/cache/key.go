package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
)

// KeyParams identifies a level query for caching.
type KeyParams struct {
	Module  string            `json:"module"`
	View    string            `json:"view"`
	Path    []string          `json:"path"`
	Filters map[string]string `json:"filters"`
	Page    int               `json:"page,omitempty"`
	// Scope separates entries written by different owners of the same query.
	Scope string `json:"scope,omitempty"`
}

// GenerateKey returns a deterministic SHA256 key for p. Module and view are
// normalised (trimmed, lower-cased); path order is significant, filter order is not.
func GenerateKey(p KeyParams) (string, error) {
	filterKeys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		filterKeys = append(filterKeys, k)
	}
	sort.Strings(filterKeys)

	filters := make([][2]string, 0, len(filterKeys))
	for _, k := range filterKeys {
		filters = append(filters, [2]string{k, p.Filters[k]})
	}

	canonical := struct {
		Module  string      `json:"m"`
		View    string      `json:"v"`
		Path    []string    `json:"p"`
		Filters [][2]string `json:"f"`
		Page    int         `json:"pg"`
		Scope   string      `json:"s,omitempty"`
	}{
		Module:  strings.ToLower(strings.TrimSpace(p.Module)),
		View:    strings.ToLower(strings.TrimSpace(p.View)),
		Path:    p.Path,
		Filters: filters,
		Page:    p.Page,
		Scope:   p.Scope,
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// GenerateSimpleKey hashes parts joined with ":".
func GenerateSimpleKey(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return hex.EncodeToString(sum[:])
}
