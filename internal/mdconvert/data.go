package mdconvert

// Representation

type ConversionResult struct {
	text string
}

func NewConversionResult(text string) ConversionResult {
	return ConversionResult{
		text: text,
	}
}

// Text returns the converted document. Paragraphs are separated by a
// blank line.
func (c *ConversionResult) Text() string {
	return c.text
}
