package thread

import (
	"sort"
)

// FindCommentByID searches the forest depth-first, checking each comment
// before its replies, and returns the first match. The result points into
// the forest, so callers may mutate it in place.
func FindCommentByID(forest []*Comment, id string) *Comment {
	for _, c := range forest {
		if c.ID == id {
			return c
		}
		if len(c.Replies) > 0 {
			if found := FindCommentByID(c.Replies, id); found != nil {
				return found
			}
		}
	}
	return nil
}

// CountComments returns the number of comments at every depth.
func CountComments(forest []*Comment) int {
	n := 0
	for _, c := range forest {
		n += 1 + CountComments(c.Replies)
	}
	return n
}

// filterFavorites keeps a comment if it is a favorite or if any of its
// filtered replies survived. Returned nodes are fresh copies.
func filterFavorites(forest []*Comment) []*Comment {
	out := make([]*Comment, 0, len(forest))
	for _, c := range forest {
		cp := *c
		cp.Replies = filterFavorites(c.Replies)
		if cp.IsFavorite || len(cp.Replies) > 0 {
			out = append(out, &cp)
		}
	}
	return out
}

// sortComments sorts every level ascending by opt.Field and then reverses
// the level when opt.Direction is descending. The sort is stable, so
// equal keys keep insertion order ascending and reversed order descending.
func sortComments(forest []*Comment, opt SortOption) []*Comment {
	sorted := make([]*Comment, len(forest))
	copy(sorted, forest)

	less := lessFunc(sorted, opt.Field)
	sort.SliceStable(sorted, less)

	if opt.Direction == Descending {
		for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
			sorted[i], sorted[j] = sorted[j], sorted[i]
		}
	}

	for i, c := range sorted {
		cp := *c
		cp.ParentID = copyID(c.ParentID)
		cp.Replies = sortComments(c.Replies, opt)
		sorted[i] = &cp
	}
	return sorted
}

func lessFunc(s []*Comment, field SortField) func(i, j int) bool {
	switch field {
	case SortByRating:
		return func(i, j int) bool { return s[i].Rating < s[j].Rating }
	case SortByReplies:
		return func(i, j int) bool { return len(s[i].Replies) < len(s[j].Replies) }
	default:
		// date and activity
		return func(i, j int) bool { return s[i].Date.Before(s[j].Date) }
	}
}
