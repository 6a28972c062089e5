// Package strings provides string list helpers used by configuration parsing.
package strings

import (
	"strings"
)

// SplitList splits a comma separated value into trimmed, non-empty, unique
// entries. Order is preserved.
//
//	SplitList(" kafka-1:9092, kafka-2:9092,,kafka-1:9092 ")
//	// Returns: []string{"kafka-1:9092", "kafka-2:9092"}
func SplitList(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return Dedupe(strings.Split(value, ","))
}

// Dedupe trims each element and drops empties and repeats.
func Dedupe(values []string) []string {
	if len(values) == 0 {
		return values
	}

	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		result = append(result, trimmed)
	}
	return result
}
