// Package extract turns one search results payload into structured listings.
//
// A payload is a JSON envelope whose "Data" field holds an HTML fragment
// (escaped inside the JSON string) and whose "Exception" field reports
// server-side failures. Extraction happens in three steps:
//
//  1. DecodeEnvelope decodes the JSON envelope and returns the fragment.
//  2. The fragment is parsed with golang.org/x/net/html.
//  3. Listing cards and the pager are selected with goquery.
//
// # Usage
//
//	ex := extract.New()
//	page, err := ex.ParsePage(payload)
//	if err != nil {
//	    return err // wraps model.ErrParse
//	}
//	listings, err := page.Listings()
//	last, err := page.PageCount()
//
// All functions are pure: the same payload always yields the same listings
// in the same order. Every failure wraps model.ErrParse.
package extract
