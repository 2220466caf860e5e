// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package sheets

import "strings"

// headerSynonyms groups header spellings that operators use interchangeably.
// Every member of a group resolves to every other member. Keys are normalized
// (lower-cased, trimmed, collapsed whitespace).
var headerSynonyms = [][]string{
	{"gp", "guild gp", "galactic power"},
	{"members", "number of members", "member count"},
	{"role", "rol"},
	{"ally code", "allycode", "ally_code"},
	{"guild name", "guild"},
	{"player name", "player", "name"},
	{"last update", "last updated"},
}

// synonymGroup maps each normalized spelling to its group index.
var synonymGroup = func() map[string]int {
	m := make(map[string]int)
	for i, group := range headerSynonyms {
		for _, s := range group {
			m[s] = i
		}
	}
	return m
}()

// NormalizeHeader canonicalizes a header cell for comparison: trim, lower,
// collapse internal whitespace.
func NormalizeHeader(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(h))), " ")
}

// headersMatch reports whether two normalized header names refer to the same
// logical column, either by equality or through the synonym table.
func headersMatch(a, b string) bool {
	if a == b {
		return true
	}
	ga, okA := synonymGroup[a]
	gb, okB := synonymGroup[b]
	return okA && okB && ga == gb
}

// ResolveColumn finds the index of a logical column in a header row,
// case-insensitively and synonym-aware. Exact normalized matches win over
// synonym matches. Returns -1 when the column is absent.
func ResolveColumn(headers []string, name string) int {
	want := NormalizeHeader(name)

	for i, h := range headers {
		if NormalizeHeader(h) == want {
			return i
		}
	}
	for i, h := range headers {
		if headersMatch(NormalizeHeader(h), want) {
			return i
		}
	}
	return -1
}

// FindColumnBySubstrings returns the index of the first header containing any
// of the candidate substrings (normalized), in header order. Used by the
// catalog loader, whose source tables have operator-variable headers.
func FindColumnBySubstrings(headers []string, candidates ...string) int {
	for i, h := range headers {
		nh := NormalizeHeader(h)
		for _, c := range candidates {
			if strings.Contains(nh, NormalizeHeader(c)) {
				return i
			}
		}
	}
	return -1
}

// resolveRequired maps each required header name to its column index, given
// the current header row, and returns the names still missing in order.
func resolveRequired(headers, required []string) (map[string]int, []string) {
	indices := make(map[string]int, len(required))
	var missing []string
	for _, req := range required {
		if idx := ResolveColumn(headers, req); idx >= 0 {
			indices[req] = idx
		} else {
			missing = append(missing, req)
		}
	}
	return indices, missing
}
