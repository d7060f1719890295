package utils

import (
	"fmt"
	"strings"
)

// categoryAliases maps a category keyword to the catalog names it may be
// stored under
var categoryAliases = map[string][]string{
	"laptop":      {"laptop", "notebook", "computer"},
	"phone":       {"phone", "smartphone", "mobile"},
	"tablet":      {"tablet", "ipad"},
	"headphone":   {"headphone", "earphone", "audio"},
	"speaker":     {"speaker", "audio"},
	"shoe":        {"shoe", "footwear", "sneaker"},
	"shirt":       {"shirt", "clothing", "apparel"},
	"clothing":    {"clothing", "apparel", "fashion"},
	"book":        {"book"},
	"electronics": {"electronics", "electronic"},
}

// CategoryAliases returns the search keywords for a category hint, the hint
// itself first. Unknown hints yield just the hint.
func CategoryAliases(hint string) []string {
	hint = strings.ToLower(strings.TrimSpace(hint))
	if hint == "" {
		return nil
	}

	aliases, ok := categoryAliases[hint]
	if !ok {
		return []string{hint}
	}

	out := []string{hint}
	for _, alias := range aliases {
		if alias != hint {
			out = append(out, alias)
		}
	}
	return out
}

// EscapeLike escapes the LIKE wildcards in s so it matches literally
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// BuildILikeAny builds "(column ILIKE $n OR ...)" with one %keyword% parameter
// per non-empty keyword, numbering placeholders from startIndex.
func BuildILikeAny(column string, keywords []string, startIndex int) (string, []interface{}) {
	var conditions []string
	var params []interface{}

	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", column, startIndex))
		params = append(params, "%"+EscapeLike(kw)+"%")
		startIndex++
	}

	if len(conditions) == 0 {
		return "FALSE", nil
	}
	return "(" + strings.Join(conditions, " OR ") + ")", params
}
