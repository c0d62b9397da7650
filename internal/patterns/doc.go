// Package patterns defines the named regular expressions chartscout looks
// for and the matching rules shared by structured and raw-text search.
package patterns
