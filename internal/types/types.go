package types

// Repository identifies one repository within the scanned organization.
type Repository struct {
	Name     string `json:"name"`
	Archived bool   `json:"archived,omitempty"`
	Fork     bool   `json:"fork,omitempty"`
}

// EntryKind distinguishes files from directories in a tree listing.
type EntryKind string

const (
	KindBlob EntryKind = "blob"
	KindTree EntryKind = "tree"
)

// FileDescriptor is one entry of a repository's recursive tree listing.
type FileDescriptor struct {
	Path string    `json:"path"`
	Kind EntryKind `json:"kind"`
	Size int64     `json:"size,omitempty"`
}

// Match is a single pattern hit inside a string. It carries no location;
// the caller ties it to a file. Value is the first capture group, or "" when
// the pattern has no group or the group did not participate.
type Match struct {
	Pattern string
	Text    string
	Value   string
}

// MatchRecord is one occurrence of a pattern within one file.
type MatchRecord struct {
	Pattern string `json:"pattern"`
	Match   string `json:"match"`
	Value   string `json:"extracted"`
	Path    string `json:"path"`
}

// FileResult groups the matches recorded for one file.
type FileResult struct {
	Path    string        `json:"path"`
	Matches []MatchRecord `json:"matches"`
}

// RepositoryResult lists, in discovery order, the files of one repository
// that produced at least one match.
type RepositoryResult struct {
	Name  string       `json:"name"`
	Files []FileResult `json:"files"`
}

// ScanResult is the aggregated outcome of an organization-wide scan.
type ScanResult struct {
	Org          string             `json:"org"`
	Repositories []RepositoryResult `json:"repositories"`
}

// FileCount returns the number of files with at least one match.
func (r *ScanResult) FileCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, repo := range r.Repositories {
		n += len(repo.Files)
	}
	return n
}

// MatchCount returns the total number of match records.
func (r *ScanResult) MatchCount() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, repo := range r.Repositories {
		for _, f := range repo.Files {
			n += len(f.Matches)
		}
	}
	return n
}

// Records flattens the result into match records in report order.
func (r *ScanResult) Records() []RepositoryRecord {
	if r == nil {
		return nil
	}
	var out []RepositoryRecord
	for _, repo := range r.Repositories {
		for _, f := range repo.Files {
			for _, m := range f.Matches {
				out = append(out, RepositoryRecord{Repository: repo.Name, MatchRecord: m})
			}
		}
	}
	return out
}

// RepositoryRecord is a MatchRecord qualified by its repository.
type RepositoryRecord struct {
	Repository string `json:"repository"`
	MatchRecord
}
