// Package crawl walks a GitHub organization remotely: it enumerates the
// organization's repositories, lists the candidate files of each
// repository's default branch, and fetches and decodes their contents.
//
// Only enumeration failures are fatal (ErrEnumeration). Listing and fetch
// failures are logged and absorbed so one bad repository or file never
// stops the scan.
package crawl
