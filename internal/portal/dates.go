package portal

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var spanishMonths = map[string]int{
	"enero":      1,
	"febrero":    2,
	"marzo":      3,
	"abril":      4,
	"mayo":       5,
	"junio":      6,
	"julio":      7,
	"agosto":     8,
	"septiembre": 9,
	"setiembre":  9,
	"octubre":    10,
	"noviembre":  11,
	"diciembre":  12,
}

var spanishDatePattern = regexp.MustCompile(`(\d{1,2})\s+de\s+([a-z]+)\s+de\s+(\d{4})`)

// foldText lowercases s, strips diacritics and collapses whitespace
func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// ParseSpanishDate converts text such as "6 de abril de 2023" to "2023-04-06".
// The date may be embedded in surrounding text. It returns false when no
// recognisable date is present.
func ParseSpanishDate(text string) (string, bool) {
	m := spanishDatePattern.FindStringSubmatch(foldText(text))
	if m == nil {
		return "", false
	}
	month, ok := spanishMonths[m[2]]
	if !ok {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	if day < 1 || day > 31 {
		return "", false
	}
	year, _ := strconv.Atoi(m[3])
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}
