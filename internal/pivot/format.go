package pivot

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// NumberFormat returns formatter of numeric cell values with language specific
// digit grouping and fixed number of decimals. Values which are not numbers are printed as is.
func NumberFormat(lang string, decimals int) FormatFunc {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	p := message.NewPrinter(tag)
	if decimals < 0 {
		decimals = 0
	}

	return func(src any) string {
		if b, ok := src.(bool); ok {
			return p.Sprint(b)
		}
		f, ok := ToNumber(src)
		if !ok {
			return p.Sprint(src)
		}
		return p.Sprintf("%.*f", decimals, f)
	}
}
