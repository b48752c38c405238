// Package country infers ISO country codes from free-form location text.
//
// The pattern table is hand-maintained: it covers the markets the configured
// companies actually hire in, not the whole world. "No match" is a normal
// outcome and yields the UNKNOWN sentinel.
package country

import (
	"regexp"

	"jobfeed-engine/internal/domain"
)

type entry struct {
	code     string
	patterns []*regexp.Regexp
}

func pats(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		out = append(out, regexp.MustCompile(`(?i)`+e))
	}
	return out
}

// Table order matters: the first country discovered over the location list
// becomes the primary country, so the order must stay stable.
var table = []entry{
	{"DK", pats(`\bdenmark\b`, `\bdanmark\b`, `\bcopenhagen\b`, `k(ø|oe?)benhavn`, `\baarhus\b`, `\bårhus\b`, `\bodense\b`, `\baalborg\b`, `\bballerup\b`, `\bkgs\.? lyngby\b`)},
	{"SE", pats(`\bsweden\b`, `\bsverige\b`, `\bstockholm\b`, `g(ö|o)teborg`, `\bgothenburg\b`, `malm(ö|oe?)\b`, `\blund\b`, `\buppsala\b`)},
	{"NO", pats(`\bnorway\b`, `\bnorge\b`, `\boslo\b`, `\bbergen\b`, `\btrondheim\b`, `\bstavanger\b`)},
	{"FI", pats(`\bfinland\b`, `\bsuomi\b`, `\bhelsinki\b`, `\bespoo\b`, `\btampere\b`, `\boulu\b`)},
	{"DE", pats(`\bgermany\b`, `\bdeutschland\b`, `\bberlin\b`, `m(ü|ue?)nchen`, `\bmunich\b`, `\bhamburg\b`, `\bfrankfurt\b`, `k(ö|oe?)ln\b`, `\bcologne\b`, `\bstuttgart\b`)},
	{"GB", pats(`\bunited kingdom\b`, `\buk\b`, `\bengland\b`, `\bscotland\b`, `\blondon\b`, `\bmanchester\b`, `\bedinburgh\b`, `\bcambridge\b`, `\bbristol\b`)},
	{"NL", pats(`\bnetherlands\b`, `\bnederland\b`, `\bamsterdam\b`, `\brotterdam\b`, `\butrecht\b`, `\beindhoven\b`, `\bthe hague\b`, `\bden haag\b`)},
	{"PL", pats(`\bpoland\b`, `\bpolska\b`, `\bwarsaw\b`, `\bwarszawa\b`, `krak(ó|o)w`, `\bcracow\b`, `wroc(ł|l)aw`, `gda(ń|n)sk`)},
	{"ES", pats(`\bspain\b`, `\bespa(ñ|n)a\b`, `\bmadrid\b`, `\bbarcelona\b`, `\bvalencia\b`, `m(á|a)laga\b`)},
	{"FR", pats(`\bfrance\b`, `\bparis\b`, `\blyon\b`, `\btoulouse\b`, `\bnantes\b`, `\bbordeaux\b`)},
	{"US", pats(`\bunited states\b`, `\busa\b`, `\bu\.s\.`, `\bnew york\b`, `\bsan francisco\b`, `\bboston\b`, `\baustin\b`, `\bseattle\b`, `\bchicago\b`, `,\s*ny\b`, `,\s*ca\b`, `,\s*tx\b`, `,\s*ma\b`, `,\s*wa\b`)},
}

// Result holds every country cue found plus the first one discovered.
type Result struct {
	Countries []string `json:"countries"`
	Primary   string   `json:"primary_country"`
}

// Classify scans each location string against the table. Within one
// location a country is counted at most once (first pattern hit wins);
// one location can legitimately hit several countries. Primary is the
// first code discovered in iteration order over the location list, not a
// frequency winner.
func Classify(locations []string) Result {
	res := Result{Primary: domain.CountryUnknown}
	seen := map[string]bool{}

	for _, loc := range locations {
		if loc == "" {
			continue
		}
		for _, e := range table {
			if seen[e.code] {
				continue
			}
			for _, p := range e.patterns {
				if p.MatchString(loc) {
					seen[e.code] = true
					res.Countries = append(res.Countries, e.code)
					if res.Primary == domain.CountryUnknown {
						res.Primary = e.code
					}
					break
				}
			}
		}
	}
	return res
}
