// Package render turns comments into display text: escaped bodies,
// relative ages and reply previews.
package render

import (
	"fmt"
	"strings"
	"time"
)

const previewLength = 30

var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
	"\n", "<br>",
)

// EscapeText makes plain comment text safe to embed in HTML and keeps
// line breaks.
func EscapeText(s string) string {
	return htmlEscaper.Replace(s)
}

// RelativeTime describes how long ago t was, relative to now.
func RelativeTime(now, t time.Time) string {
	secs := int64(now.Sub(t) / time.Second)
	switch {
	case secs < 60:
		return "только что"
	case secs < 3600:
		n := secs / 60
		return fmt.Sprintf("%d %s назад", n, Pluralize(n, "минуту", "минуты", "минут"))
	case secs < 86400:
		n := secs / 3600
		return fmt.Sprintf("%d %s назад", n, Pluralize(n, "час", "часа", "часов"))
	default:
		n := secs / 86400
		return fmt.Sprintf("%d %s назад", n, Pluralize(n, "день", "дня", "дней"))
	}
}

// Pluralize picks the Russian plural form for n.
func Pluralize(n int64, one, few, many string) string {
	if n < 0 {
		n = -n
	}
	n10, n100 := n%10, n%100
	if n10 == 1 && n100 != 11 {
		return one
	}
	if n10 >= 2 && n10 <= 4 && (n100 < 10 || n100 >= 20) {
		return few
	}
	return many
}

// ReplyPreview is the caption shown above a reply.
func ReplyPreview(author, text string) string {
	r := []rune(text)
	short := text
	if len(r) > previewLength {
		short = string(r[:previewLength]) + "..."
	}
	return fmt.Sprintf("Ответ на комментарий %s: \"%s\"", author, short)
}
