// Package readmodel merges a live window of the newest records with older
// pages into one ordered, duplicate-free sequence.
package readmodel

import "github.com/roach88/pantry/internal/record"

// Merge returns live followed by every record of older whose id is neither
// in live nor earlier in older. Relative order within each source is kept,
// and a record present in both sources is emitted as its live version.
//
// When both inputs are newest first and older holds nothing newer than the
// tail of live, the result is newest first as well.
func Merge[T record.Record](live, older []T) []T {
	out := make([]T, 0, len(live)+len(older))
	seen := make(map[string]struct{}, len(live)+len(older))
	for _, r := range live {
		if _, dup := seen[r.RecordID()]; dup {
			continue
		}
		seen[r.RecordID()] = struct{}{}
		out = append(out, r)
	}
	for _, r := range older {
		if _, dup := seen[r.RecordID()]; dup {
			continue
		}
		seen[r.RecordID()] = struct{}{}
		out = append(out, r)
	}
	return out
}
