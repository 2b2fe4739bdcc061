package extractor

// Parsed page representations. Optional numeric fields are pointers so an
// absent value is distinguishable from zero.

type Ref struct {
	ID   string
	Name string
}

type TitlePage struct {
	ID             string
	Name           string
	Kind           string
	Year           *int
	Rating         *float64
	Votes          *int
	Genres         []string
	Directors      []Ref
	Cast           []Ref
	Plot           string
	RuntimeMinutes *int
	ImageURL       string
}

type Credit struct {
	ID    string
	Title string
	Year  *int
}

type FilmographySection struct {
	Category string
	Credits  []Credit
}

type PersonPage struct {
	ID          string
	Name        string
	BirthDate   string
	DeathDate   string
	ImageURL    string
	Description string
	KnownFor    []Credit
	Filmography []FilmographySection
}

type BioPage struct {
	BirthPlace    string
	DeathPlace    string
	Height        string
	BiographyHTML string
}

type ChartItem struct {
	ID     string
	Name   string
	Kind   string
	Rating *float64
	Votes  *int
	Plot   string
}

type Suggestion struct {
	ID       string
	Label    string
	Kind     string
	Year     *int
	Subtitle string
	ImageURL string
}
