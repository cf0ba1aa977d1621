package discovery

import "LinkSearch/internal/models"

// Attempt is the outcome of one (brand, product type) search.
type Attempt struct {
	Brand       string
	ProductType string
	Items       int
	Links       int
	Skipped     int
	Stats       models.UpsertStats
	Err         error
}

// Report summarises a run. A run is complete when every pair was attempted, whatever
// the individual outcomes.
type Report struct {
	Attempts      []Attempt
	SkippedBrands []string
	Stats         models.UpsertStats
}

func (r *Report) add(a Attempt) {
	r.Attempts = append(r.Attempts, a)
	r.Stats.Add(a.Stats)
}

// Merge appends other's attempts and skipped brands to r.
func (r *Report) Merge(other Report) {
	for _, a := range other.Attempts {
		r.add(a)
	}
	r.SkippedBrands = append(r.SkippedBrands, other.SkippedBrands...)
}

// Failed counts attempts that ended in an error.
func (r Report) Failed() int {
	n := 0
	for _, a := range r.Attempts {
		if a.Err != nil {
			n++
		}
	}
	return n
}

// Succeeded counts attempts without an error.
func (r Report) Succeeded() int {
	return len(r.Attempts) - r.Failed()
}
