package normalize

// Kind tags a Key with the entity it identifies.
type Kind int

const (
	KindTitle Kind = iota
	KindPerson
)

const (
	TitlePrefix  = "tt"
	PersonPrefix = "nm"
)

func (k Kind) String() string {
	switch k {
	case KindTitle:
		return "title"
	case KindPerson:
		return "person"
	default:
		return "unknown"
	}
}

// Prefix returns the identifier prefix IMDb uses for the kind.
func (k Kind) Prefix() string {
	if k == KindPerson {
		return PersonPrefix
	}
	return TitlePrefix
}

// Key is a prefixed identifier tagged with its kind. It is comparable and
// is the only value used as a cache key.
type Key struct {
	kind  Kind
	value string
}

func (k Key) Kind() Kind {
	return k.kind
}

// String returns the prefixed identifier, e.g. "tt1375666".
func (k Key) String() string {
	return k.value
}

// Numeric returns the identifier with the kind prefix removed.
func (k Key) Numeric() string {
	return k.value[len(k.kind.Prefix()):]
}
