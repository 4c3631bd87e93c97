package service

// Lookup outcomes.
const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeListing  = "listing"
	OutcomeError    = "error"
)

// Ingest outcomes.
const (
	OutcomeInserted  = "inserted"
	OutcomeInvalid   = "invalid"
	OutcomeDuplicate = "duplicate"
)

// Observer receives exactly one outcome per Lookup or Ingest call.
type Observer interface {
	ObserveLookup(outcome string)
	ObserveIngest(outcome string)
}

type nopObserver struct{}

func (nopObserver) ObserveLookup(string) {}
func (nopObserver) ObserveIngest(string) {}
