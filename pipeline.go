package strata

import "github.com/stratadb/strata/schema"

// Validate runs the record through the validators in order. Each success
// threads its (possibly transformed) record to the next validator; each
// failure prepends its reasons to the accumulator and traversal
// continues with the record the validator returned. Failures are
// collected, never short-circuited at the validator level: only after
// every validator has run does the overall outcome depend on whether the
// accumulated reason list is empty.
//
// The returned reasons keep reverse validator order — the last failing
// validator's reasons come first. This ordering is observable by callers
// and is locked by tests.
func Validate(rec schema.Record, validators []Validator) (schema.Record, []string) {
	var acc []string
	for _, v := range validators {
		next, reasons := v.Validate(rec)
		if len(reasons) > 0 {
			acc = append(reasons[:len(reasons):len(reasons)], acc...)
		}
		rec = next
	}
	return rec, acc
}
