package domain

import "strings"

// Reputation is the classification label attached to a URL.
// Labels are free-form in storage; these are the ones the service itself produces or expects.
type Reputation string

const (
	ReputationOK  Reputation = "OK"  // benign, also the fail-open answer
	ReputationBad Reputation = "BAD" // known malicious
)

// Record is one reputation entry.
// This struct maps to the 'malware' table (domain, uri, result).
type Record struct {
	Domain string `json:"domain" db:"domain"` // host[:port], never contains "/"
	URI    string `json:"uri" db:"uri"`       // path, always starts with "/"
	Result string `json:"result" db:"result"`
}

// URL is the concatenated domain+uri form used in responses and listings.
func (r Record) URL() string {
	return r.Domain + r.URI
}

// Query is the (domain, uri) key derived from a request path.
type Query struct {
	Domain string
	URI    string
}

// URL returns domain+uri.
func (q Query) URL() string {
	return q.Domain + q.URI
}

// ResultKind tells which half of a LookupResult is populated.
type ResultKind int

const (
	KindSingle  ResultKind = iota // one URL was classified
	KindListing                   // enumeration of every stored URL
)

// LookupResult is the outcome of a lookup.
// A Single result with Found=false always carries Reputation "OK" and a Message.
type LookupResult struct {
	Kind ResultKind

	URL        string
	Reputation string
	Found      bool
	Message    string

	// URLs is set only for KindListing, in store scan order.
	URLs []string
}

// NewRecord is a factory that trims the result label.
// Validation happens in the service layer; this only builds the value.
func NewRecord(domain, uri, result string) *Record {
	return &Record{
		Domain: domain,
		URI:    uri,
		Result: strings.TrimSpace(result),
	}
}
