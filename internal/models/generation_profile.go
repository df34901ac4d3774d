package models

// GenerationProfile is the model configuration used for one complexity tier.
type GenerationProfile struct {
	Tier        string  `json:"tier"`
	ProviderID  string  `json:"providerId"`
	APIName     string  `json:"apiName"`
	DisplayName string  `json:"displayName"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float32 `json:"temperature"`
}
