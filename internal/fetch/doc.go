// Package fetch downloads the full current snapshot from the listing source.
//
// The Fetcher posts one search request per results page. Page 1 is always
// requested first; its pager announces the last page index, which is then
// passed explicitly through a sequential loop over pages 2..last. Every page
// is extracted with the extract package and appended to one snapshot.
//
// Pages are never fetched concurrently and nothing is retried: any transport
// failure (wrapping model.ErrFetch) or extraction failure (wrapping
// model.ErrParse) aborts the whole fetch, and no partial snapshot is returned.
//
// # Usage
//
//	client, err := fetch.NewHTTPClient(fetch.ClientConfig{Timeout: 30 * time.Second})
//	f := fetch.New(client, "https://example.com/Search.aspx/GetEstates")
//	snapshot, err := f.FetchCurrentSnapshot(ctx)
package fetch
