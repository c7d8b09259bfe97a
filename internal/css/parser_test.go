package css

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInlineStyle(t *testing.T) {
	p := NewParser()
	decls := p.ParseInlineStyle(`Width: 200px; font-family: "a;b", serif; color: red !important;;bogus`)

	assert.Len(t, decls, 3)
	assert.Equal(t, "200px", decls["width"].Value)
	assert.Equal(t, `"a;b", serif`, decls["font-family"].Value)
	assert.Equal(t, "red", decls["color"].Value)
	assert.True(t, decls["color"].Important)
}

func TestDimensions(t *testing.T) {
	p := NewParser()

	tests := []struct {
		name  string
		style string
		want  Dimensions
	}{
		{name: "both", style: "width: 200px; height: 50%", want: Dimensions{Width: "200px", Height: "50%"}},
		{name: "width only", style: "width:12.5em", want: Dimensions{Width: "12.5em"}},
		{name: "functional values rejected", style: "width: calc(100% - 2px); height: expression(alert(1))", want: Dimensions{}},
		{name: "url rejected", style: "width: url(x)", want: Dimensions{}},
		{name: "auto", style: "height: AUTO", want: Dimensions{Height: "auto"}},
		{name: "empty", style: "", want: Dimensions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Dimensions(tt.style))
		})
	}
}

func TestFilterDimensions(t *testing.T) {
	p := NewParser()
	assert.Equal(t, "width: 200px; height: 100px;", p.FilterDimensions("color: red; height: 100px; width: 200px"))
	assert.Equal(t, "", p.FilterDimensions("color: red"))

	// stable once filtered
	once := p.FilterDimensions("width: 10px; height: 20px")
	assert.Equal(t, once, p.FilterDimensions(once))
}

func TestFormatDimensions(t *testing.T) {
	assert.Equal(t, "", FormatDimensions(Dimensions{}))
	assert.Equal(t, "height: 3px;", FormatDimensions(Dimensions{Height: "3px"}))
	assert.True(t, Dimensions{}.IsZero())
	assert.False(t, Dimensions{Width: "1px"}.IsZero())
}
