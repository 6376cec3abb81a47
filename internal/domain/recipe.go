package domain

// Recipe is the input shape consumed by the extractor and aggregator:
// an ordered list of instruction strings plus optional recipe-level
// cook-time metadata. Storage and scraping of recipes live elsewhere.
type Recipe struct {
	// ID namespaces persisted timer keys. Optional; callers without a
	// stable identifier get a generated one.
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Steps []string `json:"steps"`
	// CookTimeMinutes, when positive, yields a synthetic "cook"
	// descriptor that participates in deduplication against body text.
	CookTimeMinutes int `json:"cookTimeMinutes"`
}
