// Package priority orders email records so flagged mail comes first.
package priority

import (
	"slices"
	"time"
)

// Keywords marks a record as priority when any of them is set. Matching is
// case-sensitive.
var Keywords = []string{"$flagged", "$important", "important", "urgent"}

// Ranked is implemented by records that can be ordered by Rank.
type Ranked interface {
	PriorityKeywords() map[string]bool
	ReceivedTime() (time.Time, bool)
}

// IsPriority reports whether any priority keyword is set.
func IsPriority(keywords map[string]bool) bool {
	for _, k := range Keywords {
		if keywords[k] {
			return true
		}
	}
	return false
}

// Rank returns a stably sorted copy of items: priority records first, then
// newest first. Records without a valid receipt time go after the valid ones
// of their tier and keep their input order.
func Rank[T Ranked](items []T) []T {
	ranked := slices.Clone(items)
	if ranked == nil {
		return []T{}
	}

	slices.SortStableFunc(ranked, compare[T])

	return ranked
}

func compare[T Ranked](a, b T) int {
	ap, bp := IsPriority(a.PriorityKeywords()), IsPriority(b.PriorityKeywords())
	switch {
	case ap && !bp:
		return -1
	case !ap && bp:
		return 1
	}

	at, aok := a.ReceivedTime()
	bt, bok := b.ReceivedTime()
	switch {
	case !aok && !bok:
		return 0
	case !aok:
		return 1
	case !bok:
		return -1
	}

	return bt.Compare(at)
}
