package format

import (
	"strconv"
	"strings"
	"unicode"
)

func isNameStart(r rune) bool { return unicode.IsLetter(r) || r == '_' }

func isNameChar(r rune) bool {
	return isNameStart(r) || unicode.IsDigit(r) || r == '-' || r == '.'
}

func xmlName(name, fallback string) string {
	if strings.TrimSpace(name) == "" {
		name = fallback
	}
	var sb strings.Builder
	for i, r := range name {
		if i == 0 && !isNameStart(r) {
			sb.WriteByte('_')
		}
		if isNameChar(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

// ElementName turns a rule name into a valid XML element name. Names may not
// start with "xml" in any case.
func ElementName(name string) string {
	s := xmlName(name, "Element")
	if len(s) >= 3 && strings.EqualFold(s[:3], "xml") {
		s = "_" + s
	}
	return s
}

// AttributeName turns a column or rule name into a valid XML attribute name.
func AttributeName(name string) string { return xmlName(name, "attr") }

// uniqueAttributeNames sanitises column names and disambiguates collisions
// case-insensitively with a numeric suffix. Blank names become Col<i>.
// Reserved names are never produced.
func uniqueAttributeNames(cols []string, reserved ...string) []string {
	out := make([]string, len(cols))
	seen := make(map[string]bool, len(cols)+len(reserved))
	for _, r := range reserved {
		seen[strings.ToLower(r)] = true
	}
	for i, c := range cols {
		if strings.TrimSpace(c) == "" {
			c = "Col" + strconv.Itoa(i)
		}
		base := AttributeName(c)
		cand := base
		for k := 2; seen[strings.ToLower(cand)]; k++ {
			cand = base + "_" + strconv.Itoa(k)
		}
		seen[strings.ToLower(cand)] = true
		out[i] = cand
	}
	return out
}
