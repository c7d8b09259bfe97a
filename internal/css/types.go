package css

// Declaration represents a single CSS property declaration
type Declaration struct {
	Property  string // CSS property name (normalized)
	Value     string // CSS property value
	Important bool   // !important flag
}

// Dimensions holds an element's display width and height as CSS lengths ("" when unset)
type Dimensions struct {
	Width  string
	Height string
}

// IsZero reports whether neither dimension is set
func (d Dimensions) IsZero() bool {
	return d.Width == "" && d.Height == ""
}
