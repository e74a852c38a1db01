package progression

import (
	"cmp"
	"slices"

	"github.com/mind-engage/mindengage-pathways/internal/catalog"
)

// compareOrder sorts by sequence number when present, then by id. Entities
// with a sequence number come before those without.
func compareOrder(aID int64, aSeq *int, bID int64, bSeq *int) int {
	switch {
	case aSeq != nil && bSeq != nil:
		if c := cmp.Compare(*aSeq, *bSeq); c != 0 {
			return c
		}
	case aSeq != nil:
		return -1
	case bSeq != nil:
		return 1
	}
	return cmp.Compare(aID, bID)
}

func sortTopics(ts []catalog.Topic) []catalog.Topic {
	out := slices.Clone(ts)
	slices.SortStableFunc(out, func(a, b catalog.Topic) int {
		return compareOrder(a.ID, a.SequenceNumber, b.ID, b.SequenceNumber)
	})
	return out
}

func sortSubjects(ss []catalog.Subject) []catalog.Subject {
	out := slices.Clone(ss)
	slices.SortStableFunc(out, func(a, b catalog.Subject) int {
		return compareOrder(a.ID, a.SequenceNumber, b.ID, b.SequenceNumber)
	})
	return out
}

func sortCourses(cs []catalog.Course) []catalog.Course {
	out := slices.Clone(cs)
	slices.SortStableFunc(out, func(a, b catalog.Course) int {
		return compareOrder(a.ID, a.SequenceNumber, b.ID, b.SequenceNumber)
	})
	return out
}

// after returns the element following the one with id, if any.
func after[T any](xs []T, id int64, idOf func(T) int64) (T, bool) {
	var zero T
	i := slices.IndexFunc(xs, func(x T) bool { return idOf(x) == id })
	if i < 0 || i+1 >= len(xs) {
		return zero, false
	}
	return xs[i+1], true
}
