package metadata

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var stableIDReplacer = strings.NewReplacer(
	"@com.sap.vocabularies.UI.v1.", "",
	"@UI.", "",
	"@", "",
	"/", "::",
	"#", "::",
)

// StableID turns an arbitrary annotation path into a valid, stable control ID
// ("@UI.FieldGroup#Header" -> "FieldGroup::Header"). Characters outside
// [A-Za-z0-9_.:-] become "_". Inputs that sanitize to nothing get a token derived
// from the xxhash of the input.
func StableID(parts ...string) string {
	sanitized := make([]string, 0, len(parts))
	for _, part := range parts {
		if s := sanitize(stableIDReplacer.Replace(part)); s != "" {
			sanitized = append(sanitized, s)
		}
	}
	id := strings.Join(sanitized, "::")
	if id == "" {
		return "id_" + strconv.FormatUint(xxhash.Sum64String(strings.Join(parts, "\x00")), 36)
	}
	if first := id[0]; !isLetter(first) && first != '_' {
		id = "_" + id
	}
	return id
}

func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case isLetter(c), c >= '0' && c <= '9', c == '_', c == '.', c == ':', c == '-':
			b.WriteByte(c)
		default:
			b.WriteByte('_')
		}
	}
	return strings.Trim(b.String(), ":")
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
