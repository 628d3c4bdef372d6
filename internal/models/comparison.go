package models

// MaxComparisonItems caps how many agents a profile can line up side by side.
const MaxComparisonItems = 3

// ComparisonChange is the payload published on the change channel whenever a
// profile's selection is rewritten.
type ComparisonChange struct {
	ProfileID string   `json:"profile_id"`
	Items     []string `json:"items"`
}

type ToggleComparisonRequestBody struct {
	Slug string `json:"slug"`
}

type ToggleComparisonResponse struct {
	Added        bool         `json:"added"`
	Selection    []string     `json:"selection"`
	Notification Notification `json:"notification"`
}

// Notification is the fire-and-forget toast payload surfaced to clients.
type Notification struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

type ComparisonCell struct {
	Value any `json:"value"`
	// Unique marks a value held by exactly one of the compared agents.
	Unique bool `json:"unique"`
}

type ComparisonRow struct {
	Key     string           `json:"key"`
	Label   string           `json:"label"`
	Section string           `json:"section"`
	Values  []ComparisonCell `json:"values"`
}

type ComparisonView struct {
	Agents   []Agent         `json:"agents"`
	Sections []string        `json:"sections"`
	Rows     []ComparisonRow `json:"rows"`
}
