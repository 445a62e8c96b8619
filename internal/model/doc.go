// Package model defines the core data structures shared by estatewatch.
//
// This package contains the following main types:
//   - Listing: One offer record extracted from a search results page
//   - Snapshot: The ordered listings observed by one full crawl
//   - DiffResult: Listings added and removed between two snapshots
//   - CycleReport: The outcome of one fetch-diff-store-notify cycle
//
// The extract, fetch, diff, storage, notify and report packages all depend on
// these types, so they live in their own package to avoid import cycles.
package model
