// Package format holds pure display helpers: relative and absolute
// timestamps, and sanitization of the HTML fragments that arrive in note
// bodies from the upstream CRM.
package format

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Relative converts an ISO 8601 timestamp to a coarse relative string:
// "just now", "{n}m ago", "{n}h ago", "{n}d ago", or an absolute date once
// the timestamp is a week old or more. Unparseable input is returned as-is.
func Relative(iso string) string {
	return relativeTo(iso, time.Now())
}

func relativeTo(iso string, now time.Time) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("2 Jan 2006")
	}
}

// Absolute renders an ISO 8601 timestamp as day, abbreviated month, year,
// hour:minute. Unparseable input is returned as-is.
func Absolute(iso string) string {
	t, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return t.Format("2 Jan 2006, 15:04")
}

// FileSize renders a byte count for attachment display.
func FileSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), []string{"KB", "MB", "GB", "TB"}[exp])
}

// dropElements are removed entirely, including their subtrees.
var dropElements = map[string]bool{
	"script": true,
	"style":  true,
	"iframe": true,
	"object": true,
	"embed":  true,
}

// SanitizeHTML strips active content out of an untrusted HTML fragment:
// script/style/iframe/object/embed elements are removed wholesale, event
// handler attributes ("on" prefix) and javascript: URL values are stripped
// from everything else. Benign markup passes through unchanged. Note bodies
// originate from a third-party CRM and must always go through here before
// display.
func SanitizeHTML(fragment string) string {
	nodes, err := parseFragment(fragment)
	if err != nil {
		// Refuse to render anything we could not parse.
		return ""
	}

	var b strings.Builder
	for _, n := range nodes {
		scrub(n)
		if n.Type == html.ElementNode && dropElements[n.Data] {
			continue
		}
		if err := html.Render(&b, n); err != nil {
			return ""
		}
	}
	return b.String()
}

// Text extracts the plain text of an HTML note body for terminal display.
// The fragment is sanitized first; block-level boundaries and <br> become
// newlines.
func Text(fragment string) string {
	nodes, err := parseFragment(SanitizeHTML(fragment))
	if err != nil {
		return ""
	}

	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n)
	}
	return strings.TrimRightFunc(b.String(), unicode.IsSpace)
}

func parseFragment(fragment string) ([]*html.Node, error) {
	body := &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	}
	return html.ParseFragment(strings.NewReader(fragment), body)
}

// scrub removes banned subtrees and dangerous attributes in place.
func scrub(n *html.Node) {
	if n.Type == html.ElementNode {
		kept := n.Attr[:0]
		for _, a := range n.Attr {
			if unsafeAttr(a) {
				continue
			}
			kept = append(kept, a)
		}
		n.Attr = kept
	}

	var next *html.Node
	for child := n.FirstChild; child != nil; child = next {
		next = child.NextSibling
		if child.Type == html.ElementNode && dropElements[child.Data] {
			n.RemoveChild(child)
			continue
		}
		scrub(child)
	}
}

func unsafeAttr(a html.Attribute) bool {
	if strings.HasPrefix(strings.ToLower(a.Key), "on") {
		return true
	}
	val := strings.TrimLeftFunc(a.Val, unicode.IsSpace)
	return len(val) >= len("javascript:") &&
		strings.EqualFold(val[:len("javascript:")], "javascript:")
}

var blockElements = map[string]bool{
	"p": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "pre": true,
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
	case html.ElementNode:
		if n.Data == "br" {
			b.WriteString("\n")
			return
		}
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		writeText(b, child)
	}
	if n.Type == html.ElementNode && blockElements[n.Data] {
		b.WriteString("\n")
	}
}
