package model

// StatusCount is the number of outcomes with one status.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// StatisticsResponse represents response for outcome statistics.
type StatisticsResponse struct {
	RunID    string        `json:"run_id,omitempty"`
	Total    int           `json:"total"`
	ByStatus []StatusCount `json:"by_status"`
}
