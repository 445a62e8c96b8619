// Package diff compares two listing snapshots by identity.
//
// Listings are matched by ID only. Price, description and address never
// influence the result, so a listing whose price changed while its ID
// persisted is neither added nor removed.
package diff
