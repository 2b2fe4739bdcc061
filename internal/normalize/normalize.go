package normalize

import "strings"

/*
Responsibilities
- Turn caller supplied identifiers into prefixed keys
- Never fail: suffix content is not validated here, a bad suffix
  surfaces later as an upstream not-found or failure

Rules
- The prefix test is exact and case-sensitive ("TT123" gets a second prefix)
- Normalizing an already normalized key returns it unchanged
*/

// TitleID normalizes a raw title identifier ("1375666" or "tt1375666").
func TitleID(raw string) Key {
	return withPrefix(KindTitle, raw)
}

// PersonID normalizes a raw person identifier ("0000138" or "nm0000138").
func PersonID(raw string) Key {
	return withPrefix(KindPerson, raw)
}

func withPrefix(kind Kind, raw string) Key {
	prefix := kind.Prefix()
	if strings.HasPrefix(raw, prefix) {
		return Key{kind: kind, value: raw}
	}
	return Key{kind: kind, value: prefix + raw}
}
