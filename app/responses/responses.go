package responses

import "github.com/courier-gateway/app/models"

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type OrderResponse struct {
	Order *models.Order `json:"order"`
}

type ConfirmOrderResponse struct {
	Order          *models.Order `json:"order"`
	TrackingNumber string        `json:"tracking_number"`
}

type BrandResponse struct {
	Brand *models.Brand `json:"brand"`
}

// MatchPreviewEntry is one scored candidate from the admin preview endpoint.
// Score is clamped for display; RawScore keeps the unclamped value the
// thresholds actually compare against.
type MatchPreviewEntry struct {
	Name        string  `json:"name"`
	Label       string  `json:"label"`
	Score       float64 `json:"score"`
	RawScore    float64 `json:"raw_score"`
	JaroWinkler float64 `json:"jaro_winkler"`
	Levenshtein int     `json:"levenshtein"`
}

type MatchPreviewResponse struct {
	Input   string              `json:"input"`
	Results []MatchPreviewEntry `json:"results"`
}

type SeedResponse struct {
	Seeded int `json:"seeded"`
}

type CacheStatsView struct {
	HitRate    float64 `json:"hit_rate"`
	TotalHits  int64   `json:"total_hits"`
	TotalMiss  int64   `json:"total_miss"`
	TotalItems int64   `json:"total_items"`
}

type StatsResponse struct {
	ResolutionCache *CacheStatsView `json:"resolution_cache,omitempty"`
	ReferenceLists  int             `json:"reference_lists"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
