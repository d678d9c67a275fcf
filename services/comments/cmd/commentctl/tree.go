package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/example/comment-widget/services/comments/internal/render"
	"github.com/example/comment-widget/services/comments/internal/thread"
)

var now = time.Now

func printTree(w io.Writer, m *thread.Manager) {
	opt := m.SortOption()
	fmt.Fprintf(w, "Комментарии (%d), sort %s %s\n", m.CommentCount(), opt.Field, opt.Direction)
	printLevel(w, m, m.SortedComments(), nil, 0, now())
}

func printLevel(w io.Writer, m *thread.Manager, forest []*thread.Comment, parent *thread.Comment, depth int, at time.Time) {
	indent := strings.Repeat("    ", depth)
	for _, c := range forest {
		marks := ""
		if c.IsFavorite {
			marks += " ★"
		}
		if m.IsLocked(c.ID) {
			marks += " (rated)"
		}
		fmt.Fprintf(w, "%s[%s] %s · %s · %+d%s\n", indent, c.ID, c.Author, render.RelativeTime(at, c.Date), c.Rating, marks)
		if parent != nil {
			fmt.Fprintf(w, "%s  %s\n", indent, render.ReplyPreview(parent.Author, parent.Text))
		}
		for _, line := range strings.Split(c.Text, "\n") {
			fmt.Fprintf(w, "%s  %s\n", indent, line)
		}
		printLevel(w, m, c.Replies, c, depth+1, at)
	}
}
