package advisory

import (
	"iter"
	"maps"
	"slices"
)

// Filter yields one Entry per binary package fixed by an advisory in the given
// release. Advisories are visited in ID order and packages in name order, so
// ranging over the sequence twice yields the same entries.
func Filter(advisories Advisories, codename string) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, id := range slices.Sorted(maps.Keys(advisories)) {
			adv := advisories[id]
			release, ok := adv.Releases[codename]
			if !ok {
				continue
			}
			summary := adv.ResolveSummary()
			published := adv.Published()
			for _, pkgName := range slices.Sorted(maps.Keys(release.Binaries)) {
				entry := Entry{
					AdvisoryID:   adv.ID,
					Package:      pkgName,
					FixedVersion: release.Binaries[pkgName].Version,
					CVEs:         adv.CVEs,
					Summary:      summary,
					Title:        adv.Title,
					Description:  adv.Description,
					Published:    published,
				}
				if !yield(entry) {
					return
				}
			}
		}
	}
}
