package attendance

import (
	"encoding/json"
	"math"
	"sort"
	"strings"
)

type Decision string

const (
	Yes        Decision = "yes"
	No         Decision = "no"
	NoResponse Decision = "no_response"
)

// RecordKind is the shape a raw attendance value was stored in.
type RecordKind int

const (
	// KindAbsent is a missing or null value.
	KindAbsent RecordKind = iota
	// KindBare is a plain boolean.
	KindBare
	// KindFlagged is an object carrying a recognised boolean flag field.
	KindFlagged
	// KindOpaque is an object (or array) without a recognised flag.
	KindOpaque
	// KindOther is any scalar that is not a boolean: numbers, strings.
	KindOther
)

// Record is a raw attendance value resolved once into a closed set of shapes.
type Record struct {
	Kind RecordKind
	// Flag holds the boolean for KindBare and KindFlagged.
	Flag bool
	// Truthy reports whether a KindOther scalar is non-zero / non-empty.
	Truthy bool
}

// flagFields are checked in priority order; the first boolean wins.
var flagFields = []string{"attending", "isAttending", "present", "isPresent"}

// ParseRecord classifies a decoded JSON value.
func ParseRecord(raw any) Record {
	switch v := raw.(type) {
	case nil:
		return Record{Kind: KindAbsent}
	case bool:
		return Record{Kind: KindBare, Flag: v}
	case map[string]any:
		if flag, ok := lookupFlag(v); ok {
			return Record{Kind: KindFlagged, Flag: flag}
		}
		return Record{Kind: KindOpaque}
	case []any:
		return Record{Kind: KindOpaque}
	case string:
		return Record{Kind: KindOther, Truthy: v != ""}
	case float64:
		return Record{Kind: KindOther, Truthy: v != 0 && !math.IsNaN(v)}
	case json.Number:
		f, err := v.Float64()
		return Record{Kind: KindOther, Truthy: err != nil || f != 0}
	case int:
		return Record{Kind: KindOther, Truthy: v != 0}
	case int64:
		return Record{Kind: KindOther, Truthy: v != 0}
	default:
		return Record{Kind: KindOther, Truthy: true}
	}
}

func lookupFlag(obj map[string]any) (bool, bool) {
	var keys []string
	for _, field := range flagFields {
		if v, ok := obj[field].(bool); ok {
			return v, true
		}
		// Spelling variants such as "Attending" or "ISPRESENT", in key order.
		if keys == nil {
			keys = make([]string, 0, len(obj))
			for key := range obj {
				keys = append(keys, key)
			}
			sort.Strings(keys)
		}
		for _, key := range keys {
			if key == field || !strings.EqualFold(key, field) {
				continue
			}
			if v, ok := obj[key].(bool); ok {
				return v, true
			}
		}
	}
	return false, false
}

// Decision maps the record with the strict policy: only booleans decide.
func (r Record) Decision() Decision {
	switch r.Kind {
	case KindBare, KindFlagged:
		if r.Flag {
			return Yes
		}
		return No
	default:
		return NoResponse
	}
}

// LegacyDecision maps the record the way headcounts have always been taken:
// a truthy scalar without any flag counts as an RSVP.
func (r Record) LegacyDecision() Decision {
	if r.Kind == KindOther && r.Truthy {
		return Yes
	}
	return r.Decision()
}

// Normalize is the strict normalizer used for per-user listings.
func Normalize(raw any) Decision {
	return ParseRecord(raw).Decision()
}

// NormalizeLegacy is the tolerant normalizer used for headcounts. It differs
// from Normalize only for truthy non-boolean scalars, which count as Yes.
func NormalizeLegacy(raw any) Decision {
	return ParseRecord(raw).LegacyDecision()
}

// CountYes counts the entries of a per-user attendance node that NormalizeLegacy
// classifies as Yes. Anything that is not an object counts as zero.
func CountYes(node any) int {
	users, ok := node.(map[string]any)
	if !ok {
		return 0
	}
	count := 0
	for _, raw := range users {
		if NormalizeLegacy(raw) == Yes {
			count++
		}
	}
	return count
}

//This project is the mess dashboard backend for the OpenSourceDUTH team. Attendance, meal ratings and complaint triage for the university dining hall.
//API Copyright (C) 2025 OpenSourceDUTH
//This program is free software: you can redistribute it and/or modify
//it under the terms of the GNU General Public License as published by
//the Free Software Foundation, either version 3 of the License, or
//(at your option) any later version.
//
//This program is distributed in the hope that it will be useful,
//but WITHOUT ANY WARRANTY; without even the implied warranty of
//MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
//GNU General Public License for more details.
//
//You should have received a copy of the GNU General Public License
//along with this program.  If not, see <https://www.gnu.org/licenses/>.
