package models

// Brand is a site we search. Name selects the scraper profile.
type Brand struct {
	ID      string `db:"id" json:"id"`
	Name    string `db:"name" json:"name"`
	Website string `db:"website" json:"website"`
}

// ProductType is a search term. Label is typed verbatim into the site's search box.
type ProductType struct {
	ID    string `db:"id" json:"id"`
	Label string `db:"label" json:"label"`
}

// DiscoveredLink is one product page found on a results page.
// ID is derived from the link path and stays stable across runs.
type DiscoveredLink struct {
	ID   string `json:"id"`
	Link string `json:"link"`
}

// PartitionKey identifies the catalog slice for one day and one brand.
type PartitionKey struct {
	Date  string // 2006-01-02
	Brand string
}

// PartitionDateLayout is the layout of PartitionKey.Date.
const PartitionDateLayout = "2006-01-02"

// LinkRecord is the stored value of a partition entry.
type LinkRecord struct {
	Link string `json:"link"`
}

// UpsertStats counts what a diffed upsert did.
type UpsertStats struct {
	Inserted  int `json:"inserted"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
}

// Writes is the number of write operations issued.
func (s UpsertStats) Writes() int {
	return s.Inserted + s.Updated
}

// Add accumulates other into s.
func (s *UpsertStats) Add(other UpsertStats) {
	s.Inserted += other.Inserted
	s.Updated += other.Updated
	s.Unchanged += other.Unchanged
}
