package diff

import "github.com/nao1215/estatewatch/internal/model"

// Compare returns the listings added and removed between previous and current.
//
// Removed holds every listing of previous whose ID does not occur in current,
// Added every listing of current whose ID does not occur in previous. Each
// list keeps the relative order of the snapshot it was filtered from.
// Duplicate IDs are filtered independently, exactly like a nested
// membership scan would.
func Compare(previous, current model.Snapshot) model.DiffResult {
	return model.DiffResult{
		Added:   missingFrom(current, idSet(previous)),
		Removed: missingFrom(previous, idSet(current)),
	}
}

// DuplicateIDs returns the IDs that occur more than once in s,
// in order of their second occurrence.
func DuplicateIDs(s model.Snapshot) []string {
	seen := make(map[string]int, len(s))
	var dups []string
	for _, l := range s {
		seen[l.ID]++
		if seen[l.ID] == 2 {
			dups = append(dups, l.ID)
		}
	}
	return dups
}

// idSet indexes the IDs of s.
func idSet(s model.Snapshot) map[string]struct{} {
	set := make(map[string]struct{}, len(s))
	for _, l := range s {
		set[l.ID] = struct{}{}
	}
	return set
}

// missingFrom returns the listings of s whose ID is not in ids.
func missingFrom(s model.Snapshot, ids map[string]struct{}) []model.Listing {
	out := make([]model.Listing, 0)
	for _, l := range s {
		if _, ok := ids[l.ID]; !ok {
			out = append(out, l)
		}
	}
	return out
}
