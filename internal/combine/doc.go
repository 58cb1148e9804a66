// Package combine extracts NFL scouting combine results from Pro-Football-Reference
// combine pages (https://www.pro-football-reference.com/draft/YYYY-combine.htm).
//
// Each page holds one table with id "combine". Every column is read as displayed except
// "college", which links to the player's college statistics page; the link target is kept
// instead of the link text. Results for several years are stacked into one dataset indexed
// by combine year and a per-year sequential player id.
package combine
