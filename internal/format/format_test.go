package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRelative_Thresholds(t *testing.T) {
	now := time.Date(2026, 8, 21, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		iso  string
		want string
	}{
		{"seconds ago", "2026-08-21T11:59:30Z", "just now"},
		{"minutes ago", "2026-08-21T11:15:00Z", "45m ago"},
		{"one minute boundary", "2026-08-21T11:59:00Z", "1m ago"},
		{"hours ago", "2026-08-21T09:00:00Z", "3h ago"},
		{"days ago", "2026-08-19T12:00:00Z", "2d ago"},
		{"just under a week", "2026-08-14T13:00:00Z", "6d ago"},
		{"a week or more is absolute", "2026-08-14T12:00:00Z", "14 Aug 2026"},
		{"long ago", "2025-01-03T00:00:00Z", "3 Jan 2025"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, relativeTo(tt.iso, now))
		})
	}
}

func TestRelative_UnparseablePassesThrough(t *testing.T) {
	assert.Equal(t, "not a date", Relative("not a date"))
	assert.Equal(t, "", Relative(""))
}

func TestAbsolute(t *testing.T) {
	assert.Equal(t, "5 Feb 2026, 09:30", Absolute("2026-02-05T09:30:00Z"))
	assert.Equal(t, "garbage", Absolute("garbage"))
}

func TestFileSize(t *testing.T) {
	assert.Equal(t, "512 B", FileSize(512))
	assert.Equal(t, "1.0 KB", FileSize(1024))
	assert.Equal(t, "1.5 KB", FileSize(1536))
	assert.Equal(t, "2.0 MB", FileSize(2*1024*1024))
}

func TestSanitizeHTML_StripsActiveContent(t *testing.T) {
	in := `<script>alert(1)</script><p onclick="x()">hi</p>`
	assert.Equal(t, `<p>hi</p>`, SanitizeHTML(in))
}

func TestSanitizeHTML_DropsBannedSubtrees(t *testing.T) {
	in := `<div>before<iframe src="https://evil.example"><p>inside</p></iframe>after</div>`
	got := SanitizeHTML(in)
	assert.NotContains(t, got, "iframe")
	assert.NotContains(t, got, "inside")
	assert.Contains(t, got, "before")
	assert.Contains(t, got, "after")

	assert.NotContains(t, SanitizeHTML(`<style>p{display:none}</style><p>x</p>`), "style")
	assert.NotContains(t, SanitizeHTML(`<object data="x"></object>ok`), "object")
	assert.NotContains(t, SanitizeHTML(`<embed src="x">ok`), "embed")
}

func TestSanitizeHTML_StripsEventHandlersAndJavascriptURLs(t *testing.T) {
	got := SanitizeHTML(`<a href="javascript:steal()" onmouseover="x()">link</a>`)
	assert.NotContains(t, got, "javascript:")
	assert.NotContains(t, got, "onmouseover")
	assert.Contains(t, got, "link")

	// Leading whitespace and mixed case do not dodge the check.
	got = SanitizeHTML(`<a href="  JavaScript:alert(1)">x</a>`)
	assert.NotContains(t, got, "alert")

	// ONCLICK in caps is still an event handler.
	got = SanitizeHTML(`<p ONCLICK="x()">y</p>`)
	assert.Equal(t, `<p>y</p>`, got)
}

func TestSanitizeHTML_KeepsBenignMarkup(t *testing.T) {
	in := `<p>Hello <b>world</b></p><a href="https://example.com">site</a>`
	assert.Equal(t, in, SanitizeHTML(in))
}

func TestSanitizeHTML_PlainText(t *testing.T) {
	assert.Equal(t, "no markup at all", SanitizeHTML("no markup at all"))
}

func TestText_ExtractsPlainText(t *testing.T) {
	in := `<p>First line</p><p>Second<br>third</p>`
	assert.Equal(t, "First line\nSecond\nthird", Text(in))
}

func TestText_SanitizesFirst(t *testing.T) {
	in := `<script>alert(1)</script><div>safe</div>`
	assert.Equal(t, "safe", Text(in))
}

func TestText_PlainInputUnchanged(t *testing.T) {
	assert.Equal(t, "just words", Text("just words"))
}
