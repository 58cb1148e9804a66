// Package player extracts college statistics for individual players from Sports Reference
// player pages (https://www.sports-reference.com/cfb/players/fname-lname-N.html).
//
// A page has up to three category tables: passing, rushing & receiving, and defense. The
// tables a player has are placed side by side, duplicated columns collapse to one, and
// stats from several players are stacked into one dataset indexed by player id and season.
package player
