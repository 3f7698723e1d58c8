package fonts

import (
	"sort"

	"github.com/gobwas/glob"
)

// preferredFamilies is the ordered allow-list of well-known font family
// filename patterns. Earlier patterns are preferred; within a pattern,
// candidates are taken in lexical order. The first file seen for a given
// basename wins when the same family exists in several directories.
var preferredFamilies = []string{
	"DejaVuSans.ttf",
	"DejaVuSans-*.ttf",
	"DejaVuSerif*.ttf",
	"DejaVuSansMono*.ttf",
	"LiberationSans-*.ttf",
	"LiberationSerif-*.ttf",
	"LiberationMono-*.ttf",
	"NotoSans-*.ttf",
	"NotoSerif-*.ttf",
	"FreeSans*.ttf",
	"FreeSerif*.ttf",
	"FreeMono*.ttf",
}

var preferredGlobs = compileFamilies()

func compileFamilies() []glob.Glob {
	gs := make([]glob.Glob, len(preferredFamilies))
	for i, p := range preferredFamilies {
		gs[i] = glob.MustCompile(p)
	}
	return gs
}

// Select applies the font selection policy to the discovered candidates:
// prefer the allow-listed families in order, fall back to the first 16
// candidates in lexical order when none match, and cap the result at 32
// files regardless of source.
func Select(candidates []File) []File {
	sorted := make([]File, len(candidates))
	copy(sorted, candidates)
	// Stable so that duplicates keep their source directory rank: the
	// first directory to provide a basename wins.
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	seen := make(map[string]bool, len(sorted))
	var selected []File

	for _, g := range preferredGlobs {
		for _, f := range sorted {
			if seen[f.Name] || !g.Match(f.Name) {
				continue
			}
			seen[f.Name] = true
			selected = append(selected, f)
			if len(selected) == maxFonts {
				return selected
			}
		}
	}

	if len(selected) > 0 {
		return selected
	}

	// None of the well-known families are present. Take a lexical prefix
	// of whatever the source has; duplicate basenames survive here and
	// are disambiguated with numeric suffixes at insertion time.
	limit := lexicalFallbackLimit
	if limit > len(sorted) {
		limit = len(sorted)
	}
	return sorted[:limit]
}
