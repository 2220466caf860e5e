// Rostersync - SWGOH Guild Roster Synchronization for Google Sheets
// Copyright 2026 A. Ruiz (aruizcam)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/aruizcam/rostersync

package comlink

import (
	"strconv"
	"strings"
)

// FlexInt is an integer that tolerates the number/string drift in Comlink
// payloads: galactic power, ally codes, and member counts arrive as JSON
// numbers on some provider versions and as quoted strings on others.
// Missing, null, or unparseable values decode to zero.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Some fields arrive as floats ("123.0"); accept the integer part.
		fl, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			*f = 0
			return nil
		}
		n = int64(fl)
	}
	*f = FlexInt(n)
	return nil
}

// Int returns the value as a plain int.
func (f FlexInt) Int() int { return int(f) }

// Int64 returns the value as int64.
func (f FlexInt) Int64() int64 { return int64(f) }

// IsZero reports whether the value is zero (absent or unparseable).
func (f FlexInt) IsZero() bool { return f == 0 }

// String formats the value in base 10.
func (f FlexInt) String() string { return strconv.FormatInt(int64(f), 10) }

// firstNonEmpty returns the first non-empty string from an ordered list of
// candidate values. Payload fields drift across provider versions, so callers
// list accessor results in priority order and take the first present one.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// firstNonZero returns the first non-zero FlexInt from an ordered candidate list.
func firstNonZero(vals ...FlexInt) FlexInt {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
