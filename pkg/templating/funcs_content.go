package templating

import (
	"fmt"
	"html/template"
	"strings"
	"unicode"
)

// toText converts a decoded form value into plain text.
func toText(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case template.HTML:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// splitList turns a form value into a list of trimmed, non-empty items.
// Strings are split on commas and newlines; JSON arrays are used element-wise.
func splitList(val any) []string {
	var raw []string
	switch v := val.(type) {
	case []any:
		for _, item := range v {
			raw = append(raw, toText(item))
		}
	case []string:
		raw = v
	default:
		raw = strings.FieldsFunc(toText(val), func(r rune) bool {
			return r == ',' || r == '\n' || r == '\r'
		})
	}

	items := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// paragraphs splits free text into paragraphs separated by blank lines.
func paragraphs(val any) []string {
	text := strings.ReplaceAll(toText(val), "\r\n", "\n")
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// initials returns the upper-cased first letter of up to two words of a name.
func initials(name string) string {
	var sb strings.Builder
	count := 0
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				sb.WriteRune(unicode.ToUpper(r))
				count++
				break
			}
		}
		if count == 2 {
			break
		}
	}
	return sb.String()
}

// titleCase upper-cases the first letter of every word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
