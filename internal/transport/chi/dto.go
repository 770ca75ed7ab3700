package chi

// ContentRequest is the optional JSON body of POST /search/content.
type ContentRequest struct {
	SortBy      string    `json:"sort_by,omitempty"`
	UserVector  []float32 `json:"user_vector,omitempty"`
	TypeFilters []string  `json:"type_filters,omitempty"`
}

// HealthResponse is the body of GET /healthcheck.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
