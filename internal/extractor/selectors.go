package extractor

// Selector lists are tried in order; the first one that matches wins.
// IMDb has served more than one page layout, so each field lists the
// current layout first and the older one after it.
//
//nolint:gochecknoglobals // static lookup tables
var (
	jsonLDSelector = `script[type="application/ld+json"]`

	plotSelectors = []string{
		`[data-testid="plot-xl"]`,
		`[data-testid="plot-l"]`,
		`[data-testid="plot"] span`,
		`.summary_text`,
	}

	castSelectors = []string{
		`[data-testid="title-cast-item__actor"]`,
		`table.cast_list td:not(.primary_photo) > a[href^="/name/"]`,
	}

	knownForSelectors = []string{
		`[data-testid="nm_kwn_for_section"] a[href*="/title/tt"]`,
		`#knownfor a[href*="/title/tt"]`,
	}

	// rows whose id is "<category>-tt<digits>"
	filmographyRowSelector = `.filmo-row[id]`

	filmographyYearSelector = `.year_column`

	overviewRowSelectors = []string{
		`[data-testid="sub-section-overview"] li`,
		`#overviewTable tr`,
	}

	overviewLabelSelectors = `.ipc-metadata-list-item__label, td.label`

	biographySelectors = []string{
		`[data-testid="sub-section-mini_bio"] .ipc-html-content-inner-div`,
		`#bio_content .soda`,
	}
)
