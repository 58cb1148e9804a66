// Package scraper fetches Pro-Football-Reference and Sports Reference pages and parses them
// into goquery documents.
//
// Pages can be loaded with a plain HTTP client or through a headless browser. Either way
// the HTML goes through ParseDocument, which restores statistics tables the sites ship
// inside HTML comments. FetchAll loads pages one after another. Throttle spaces requests by
// a fixed wait to stay within the sites' request limits, and Cached serves recently
// downloaded pages from a PageCache on disk.
package scraper
