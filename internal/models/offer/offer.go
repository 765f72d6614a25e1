package offer

import "time"

// Offer is the stored entity, keyed by (tenderId, provider) in the storage layer.
// QualityScore is meaningful only once Evaluated is true; a score of 0 on an
// evaluated offer is a real score, not a default.
type Offer struct {
	Provider         string
	Price            int64
	DocumentationRef string
	QualityScore     int64
	Evaluated        bool
	SubmittedAt      time.Time
}

type OfferRequest struct {
	TenderID         int64  `json:"tenderId" validate:"required,gt=0"`
	Price            int64  `json:"price" validate:"required,gt=0"`
	DocumentationRef string `json:"documentationRef" validate:"required"`
}

type OfferResponse struct {
	TenderID         int64     `json:"tenderId"`
	Provider         string    `json:"provider"`
	Price            int64     `json:"price"`
	DocumentationRef string    `json:"documentationRef"`
	QualityScore     int64     `json:"qualityScore"`
	Evaluated        bool      `json:"evaluated"`
	SubmittedAt      time.Time `json:"submittedAt"`
}

// OfferListResponse carries parallel sequences ordered identically to the
// tender's participant list. CombinedScores holds 0 for unevaluated offers.
type OfferListResponse struct {
	Providers      []string `json:"providers"`
	Prices         []int64  `json:"prices"`
	QualityScores  []int64  `json:"qualityScores"`
	CombinedScores []int64  `json:"combinedScores"`
}

// EvaluationRequest uses a pointer so that a quality score of 0 survives the
// required check.
type EvaluationRequest struct {
	QualityScore *int64 `json:"qualityScore" validate:"required"`
}
