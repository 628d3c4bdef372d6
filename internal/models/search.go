package models

type SearchResponse struct {
	Query   string  `json:"query"`
	Results []Agent `json:"results"`
	Total   int     `json:"total"`
}

// SearchUpdate is one debounced ranking pass streamed to a live search client.
// Version increases with every query update; clients keep the highest seen.
type SearchUpdate struct {
	Query   string  `json:"query"`
	Version uint64  `json:"version"`
	Results []Agent `json:"results"`
}

type LiveQueryRequestBody struct {
	Query string `json:"query"`
}
