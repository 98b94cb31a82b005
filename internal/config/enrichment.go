package config

import "fmt"

// EnrichmentConfig controls the merge request enrichment pipeline and the
// batch runner that drives it.
type EnrichmentConfig struct {
	// GroupIDs are the GitLab groups walked by a batch run.
	GroupIDs []int
	// ExcludedStates drops merge requests in these states before enrichment.
	ExcludedStates []string
	// ConcurrentFetch fetches notes, changes, approvals and commits in parallel.
	ConcurrentFetch bool
	// MergeEventAction is the event action correlated with a v3 merge request.
	MergeEventAction string
}

// LoadEnrichmentConfigFromEnv loads enrichment configuration from environment variables.
func LoadEnrichmentConfigFromEnv() EnrichmentConfig {
	return EnrichmentConfig{
		GroupIDs:         GetEnvIntList("ENRICH_GROUP_IDS", []int{}),
		ExcludedStates:   GetEnvList("ENRICH_EXCLUDED_STATES", []string{}),
		ConcurrentFetch:  GetEnvBool("ENRICH_CONCURRENT_FETCH", false),
		MergeEventAction: GetEnv("ENRICH_MERGE_EVENT_ACTION", "pushed to"),
	}
}

// Validate validates enrichment configuration.
func (c EnrichmentConfig) Validate() error {
	if c.MergeEventAction == "" {
		return fmt.Errorf("ENRICH_MERGE_EVENT_ACTION must not be empty")
	}
	for _, id := range c.GroupIDs {
		if id <= 0 {
			return fmt.Errorf("invalid group id in ENRICH_GROUP_IDS: %d", id)
		}
	}
	return nil
}

// IsExcludedState reports whether merge requests in state are skipped.
func (c EnrichmentConfig) IsExcludedState(state string) bool {
	for _, s := range c.ExcludedStates {
		if s == state {
			return true
		}
	}
	return false
}
