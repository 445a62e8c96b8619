package model

// Listing is one offer record extracted from a listing card.
//
// Identity and equality for change detection are defined solely by ID.
// The remaining fields are display text carried as-is and never compared.
type Listing struct {
	// ID is the value of the id= parameter of the detail link.
	// It is opaque text; it is never parsed as a number.
	ID string `json:"id"`

	// Price is the price text shown on the card. May be empty.
	Price string `json:"price"`

	// Description is the summary text shown on the card. May be empty.
	Description string `json:"description"`

	// Address is the address text shown on the card. May be empty.
	Address string `json:"address"`
}

// Snapshot is the ordered collection of listings observed by one full crawl.
// Uniqueness of IDs is assumed but not enforced.
type Snapshot []Listing

// IDs returns the listing IDs in snapshot order.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s))
	for i, l := range s {
		ids[i] = l.ID
	}
	return ids
}

// DiffResult holds the outcome of comparing two snapshots by identity.
type DiffResult struct {
	// Added contains listings of the current snapshot whose ID is absent
	// from the previous one, in current-snapshot order.
	Added []Listing `json:"added"`

	// Removed contains listings of the previous snapshot whose ID is absent
	// from the current one, in previous-snapshot order.
	Removed []Listing `json:"removed"`
}

// Empty reports whether nothing was added and nothing was removed.
func (d DiffResult) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}
