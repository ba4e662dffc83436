package format

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Integer is the set of types DisplayNumber accepts.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

var enPrinter = message.NewPrinter(language.English)

// DisplayNumber renders n with "," between groups of three digits, counted from the right.
// Negative values keep their sign: -1234 renders as "-1,234".
func DisplayNumber[T Integer](n T) string {
	if n < 0 {
		return enPrinter.Sprintf("%d", int64(n))
	}
	return enPrinter.Sprintf("%d", uint64(n))
}
