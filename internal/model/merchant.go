package model

import "time"

// MerchantSource indicates how a knowledge-store record was created.
type MerchantSource string

const (
	// MerchantSourceSeed marks records loaded from a curated seed list.
	MerchantSourceSeed MerchantSource = "seed"
	// MerchantSourceManual marks records added through the CLI.
	MerchantSourceManual MerchantSource = "manual"
	// MerchantSourceLearned marks records written after a confident inference.
	MerchantSourceLearned MerchantSource = "ai-learned"
)

// MerchantRecord is a known merchant in the knowledge store.
type MerchantRecord struct {
	LastSeen       time.Time
	CreatedAt      time.Time
	RawKey         string
	NormalizedName string
	CanonicalName  string
	Category       CanonicalCategory
	Subcategory    string
	Source         MerchantSource
	Keywords       []string
	Confidence     float64
	UsageCount     int
}

// MerchantInference is the structured answer of the external categorization service.
type MerchantInference struct {
	Category           string  `json:"category"`
	Subcategory        string  `json:"subcategory"`
	MerchantNormalized string  `json:"merchant_normalized"`
	Reasoning          string  `json:"reasoning"`
	Confidence         float64 `json:"confidence"`
}
