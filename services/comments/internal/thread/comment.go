package thread

import (
	"time"
)

const (
	// MaxTextLength is the longest accepted comment text, in characters.
	MaxTextLength = 1000

	DefaultAuthor = "Максим Авдеенко"
	DefaultAvatar = "./img/avatars/Mask group.png"
)

// Comment is one node of the comment forest. Field names follow the
// widget's stored record format.
type Comment struct {
	ID         string     `json:"id"`
	ParentID   *string    `json:"parentId"`
	Author     string     `json:"author"`
	Avatar     string     `json:"avatar"`
	Text       string     `json:"text"`
	Date       time.Time  `json:"date"`
	Rating     int        `json:"rating"`
	IsFavorite bool       `json:"isFavorite"`
	Replies    []*Comment `json:"replies"`
}

// VoteSet records which comments already had their single rating action.
type VoteSet map[string]bool

// SortField selects the key used by SortedComments.
type SortField string

const (
	SortByDate     SortField = "date"
	SortByRating   SortField = "rating"
	SortByActivity SortField = "activity"
	SortByReplies  SortField = "replies"
)

// ParseSortField returns the field for s and whether it is known.
func ParseSortField(s string) (SortField, bool) {
	switch f := SortField(s); f {
	case SortByDate, SortByRating, SortByActivity, SortByReplies:
		return f, true
	}
	return "", false
}

type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortOption is the current sort state of a Manager.
type SortOption struct {
	Field     SortField     `json:"field"`
	Direction SortDirection `json:"direction"`
}

// Outcome reports what a command did. Rejections are not errors.
type Outcome int

const (
	Applied Outcome = iota
	RejectedEmpty
	RejectedTooLong
	RejectedParentNotFound
	RejectedNotFound
	RejectedAlreadyVoted
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case RejectedEmpty:
		return "rejected: empty text"
	case RejectedTooLong:
		return "rejected: text too long"
	case RejectedParentNotFound:
		return "rejected: parent not found"
	case RejectedNotFound:
		return "rejected: comment not found"
	case RejectedAlreadyVoted:
		return "rejected: already voted"
	default:
		return "unknown"
	}
}

// clone copies c and its whole subtree.
func (c *Comment) clone() *Comment {
	out := *c
	out.ParentID = copyID(c.ParentID)
	out.Replies = make([]*Comment, len(c.Replies))
	for i, r := range c.Replies {
		out.Replies[i] = r.clone()
	}
	return &out
}

func copyID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
