// Package main provides the entry point for the estatewatch CLI.
//
// estatewatch polls a paginated real-estate listing source, compares the
// current listings with the stored snapshot and emails the added and
// removed listings.
//
// Usage:
//
//	estatewatch run
//	estatewatch watch --now
//
// See --help for all available options.
package main

func main() {
	Execute()
}
