package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLinkURLPolicy(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com", true},
		{"http://example.com/path?q=1", true},
		{"mailto:someone@example.com", true},
		{"tel:+15555550100", true},
		{"blob:https://example.com/uuid", true},
		{"/relative/path", true},
		{"relative.html", true},
		{"//cdn.example.com/x", true},
		{"#anchor", true},
		{"javascript:alert(1)", false},
		{"JavaScript:alert(1)", false},
		{" java\tscript:alert(1)", false},
		{"vbscript:msgbox", false},
		{"file:///etc/passwd", false},
		{"data:text/html,x", false},
		{"data:image/png;base64,AAAA", false},
		{"", false},
		{"   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafeLinkURL(tt.url))
		})
	}
}

func TestImageURLPolicy(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://example.com/a.png", true},
		{"a.png", true},
		{"data:image/png;base64,AAAA", true},
		{"data:image/svg+xml,<svg></svg>", true},
		{"DATA:IMAGE/JPEG;base64,AAAA", true},
		{"data:text/html,x", false},
		{"data:,x", false},
		{"javascript:alert(1)", false},
		{"vbscript:x", false},
		{"file:///tmp/a.png", false},
		{"mailto:a@b.c", false},
		{"tel:+15551234", false},
		{"blob:https://example.com/1f2e", true},
		{"//cdn.example.com/a.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSafeImageURL(tt.url))
		})
	}
}

func TestMalformedURLTreatedAsRelative(t *testing.T) {
	// url.Parse rejects the bare percent sign
	assert.True(t, IsSafeLinkURL("100%_done"))
	assert.False(t, IsSafeLinkURL("weird:%zz"))
}

func TestClassMapIsolation(t *testing.T) {
	first := NewClassMap(map[string]string{"p": "first"})
	second := NewClassMap(nil)

	first["h1"] = "mutated"

	assert.Equal(t, "first", first.ClassFor("p"))
	assert.Equal(t, "text-base leading-7 my-4", second.ClassFor("p"))
	assert.Equal(t, "text-4xl font-bold mt-8 mb-4 leading-tight", second.ClassFor("H1"))
	assert.Equal(t, "text-4xl font-bold mt-8 mb-4 leading-tight", DefaultClassMap().ClassFor("h1"))

	clone := first.Clone()
	clone["p"] = "clone"
	assert.Equal(t, "first", first.ClassFor("p"))

	var unset ClassMap
	assert.Equal(t, "font-bold", unset.ClassFor("strong"))
	assert.Equal(t, "", unset.ClassFor("div"))
}

func TestTagSets(t *testing.T) {
	for _, tag := range BlockTags {
		assert.True(t, IsBlock(tag), tag)
		assert.True(t, IsAllowed(tag), tag)
	}
	for _, tag := range InlineTags {
		assert.False(t, IsBlock(tag), tag)
		assert.True(t, IsAllowed(tag), tag)
	}

	assert.False(t, IsAllowed("div"))
	assert.False(t, IsAllowed("span"))
	assert.True(t, IsBlocked("SCRIPT"))
	assert.True(t, IsBlocked("iframe"))
	assert.False(t, IsBlocked("p"))
	assert.True(t, IsList("ol"))
	assert.False(t, IsList("li"))
	assert.True(t, IsHeading("h3"))
	assert.True(t, IsOpaqueInline("code"))
	assert.False(t, IsOpaqueInline("strong"))

	canonical, ok := Alias("B")
	assert.True(t, ok)
	assert.Equal(t, "strong", canonical)
	_, ok = Alias("strong")
	assert.False(t, ok)

	assert.Equal(t, []string{"href", "target", "rel"}, AllowedAttributes("a"))
	assert.Empty(t, AllowedAttributes("p"))
	assert.True(t, IsEventHandler("onClick"))
	assert.False(t, IsEventHandler("href"))
}
