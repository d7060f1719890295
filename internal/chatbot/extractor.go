package chatbot

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"shopassist/internal/model"
)

var (
	nonWordChars    = regexp.MustCompile(`[^\p{L}\p{N}_]`)
	amountNoiseChar = strings.NewReplacer(",", "", "$", "")
)

// stopWords are dropped when rebuilding the free-text query
var stopWords = map[string]bool{
	"i": true, "want": true, "need": true, "looking": true, "for": true,
	"show": true, "me": true, "find": true, "get": true,
	"a": true, "an": true, "the": true, "some": true,
}

// minQueryTokenLength is the shortest token kept in the free-text query
const minQueryTokenLength = 3

// Extractor pulls structured search parameters out of a message
type Extractor struct {
	table *PatternTable
}

// NewExtractor creates an extractor over the given table
func NewExtractor(table *PatternTable) *Extractor {
	return &Extractor{table: table}
}

// Extract returns the parameters found in text.
//
// A price range ("$100-500", "100 to 500") takes precedence: when it yields
// two amounts the standalone "under"/"over" checks are skipped. Amounts that
// do not parse as non-negative 64-bit integers are ignored, leaving the
// corresponding key unset.
func (e *Extractor) Extract(text string) model.ExtractedParameters {
	var params model.ExtractedParameters
	lower := strings.ToLower(text)

	rangeMatched := false
	if m := e.table.Attribute(AttrPriceRange).FindStringSubmatch(lower); m != nil {
		var amounts []int64
		for _, group := range m[1:] {
			if v, ok := parseAmount(group); ok {
				amounts = append(amounts, v)
			}
		}
		if len(amounts) >= 2 {
			lo, hi := amounts[0], amounts[0]
			for _, v := range amounts[1:] {
				lo = min(lo, v)
				hi = max(hi, v)
			}
			params.MinPrice = &lo
			params.MaxPrice = &hi
			rangeMatched = true
		}
	}

	if !rangeMatched {
		if v, ok := firstAmount(e.table.Attribute(AttrMaxPrice), lower); ok {
			params.MaxPrice = &v
		}
		if v, ok := firstAmount(e.table.Attribute(AttrMinPrice), lower); ok {
			params.MinPrice = &v
		}
	}

	if m := e.table.Attribute(AttrBrand).FindStringSubmatch(lower); m != nil {
		params.Brand = titleCase(m[1])
	}

	if m := e.table.Attribute(AttrCategory).FindStringSubmatch(lower); m != nil {
		params.CategoryHint = m[1]
	}

	if v, ok := firstAmount(e.table.Attribute(AttrProductID), lower); ok {
		params.ProductID = &v
	}

	params.Query = buildQuery(lower)

	return params
}

// firstAmount returns the first capture group of re that parses as an amount
func firstAmount(re *regexp.Regexp, text string) (int64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	for _, group := range m[1:] {
		if group == "" {
			continue
		}
		return parseAmount(group)
	}
	return 0, false
}

// parseAmount converts "1,299" or "$1299" to an integer
func parseAmount(raw string) (int64, bool) {
	cleaned := amountNoiseChar.Replace(raw)
	if cleaned == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

func buildQuery(lower string) string {
	var words []string
	for _, token := range strings.Fields(lower) {
		cleaned := nonWordChars.ReplaceAllString(token, "")
		if cleaned == "" || stopWords[cleaned] {
			continue
		}
		if utf8.RuneCountInString(cleaned) < minQueryTokenLength {
			continue
		}
		words = append(words, cleaned)
	}
	return strings.Join(words, " ")
}

// titleCase upper-cases the first letter and lower-cases the rest
func titleCase(word string) string {
	if word == "" {
		return word
	}
	r, size := utf8.DecodeRuneInString(word)
	return strings.ToUpper(string(r)) + strings.ToLower(word[size:])
}
