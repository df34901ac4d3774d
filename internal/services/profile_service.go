package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"quickedit/internal/analysis"
	"quickedit/internal/assets"
	"quickedit/internal/models"
)

// ProfileService resolves generation profiles for the configured provider
// from the embedded catalogue.
type ProfileService interface {
	Startup(ctx context.Context) error
	Provider() string
	Providers() []string
	Profile(tier analysis.Complexity) (models.GenerationProfile, error)
	Profiles() ([]models.GenerationProfile, error)
}

type profileService struct {
	provider string
	override string
	ctx      context.Context

	mu            sync.RWMutex
	providerOrder []string
	providerNames map[string]string
	profiles      map[string]map[analysis.Complexity]models.GenerationProfile
}

type rawProfileFile struct {
	Providers []rawProvider `json:"providers"`
}

type rawProvider struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"displayName"`
	Profiles    []rawProfile `json:"profiles"`
}

type rawProfile struct {
	Tier        string  `json:"tier"`
	DisplayName string  `json:"displayName"`
	APIName     string  `json:"apiName"`
	MaxTokens   int     `json:"maxTokens"`
	Temperature float32 `json:"temperature"`
}

// NewProfileService serves profiles for provider. A non-empty modelOverride
// replaces the catalogue model for every tier.
func NewProfileService(provider, modelOverride string) ProfileService {
	return &profileService{
		provider:      strings.ToLower(strings.TrimSpace(provider)),
		override:      strings.TrimSpace(modelOverride),
		providerNames: make(map[string]string),
		profiles:      make(map[string]map[analysis.Complexity]models.GenerationProfile),
	}
}

func (s *profileService) Startup(ctx context.Context) error {
	s.ctx = ctx

	var parsed rawProfileFile
	if err := json.Unmarshal(assets.ProfilesData, &parsed); err != nil {
		return fmt.Errorf("parse profiles asset: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.providerOrder = make([]string, 0, len(parsed.Providers))
	for _, provider := range parsed.Providers {
		providerID := strings.TrimSpace(provider.ID)
		if providerID == "" {
			continue
		}
		s.providerNames[providerID] = strings.TrimSpace(provider.DisplayName)
		s.providerOrder = append(s.providerOrder, providerID)
		byTier := make(map[analysis.Complexity]models.GenerationProfile, len(provider.Profiles))
		for _, p := range provider.Profiles {
			tier, err := analysis.ParseComplexity(p.Tier)
			if err != nil {
				return fmt.Errorf("provider %s: %w", providerID, err)
			}
			byTier[tier] = models.GenerationProfile{
				Tier:        string(tier),
				ProviderID:  providerID,
				APIName:     strings.TrimSpace(p.APIName),
				DisplayName: strings.TrimSpace(p.DisplayName),
				MaxTokens:   p.MaxTokens,
				Temperature: p.Temperature,
			}
		}
		for _, tier := range analysis.Tiers {
			if _, ok := byTier[tier]; !ok {
				return fmt.Errorf("provider %s has no %s profile", providerID, tier)
			}
		}
		s.profiles[providerID] = byTier
	}

	if _, ok := s.profiles[s.provider]; !ok {
		return fmt.Errorf("unknown provider %q (available: %s)", s.provider, strings.Join(s.providerOrder, ", "))
	}
	return nil
}

func (s *profileService) Provider() string {
	return s.provider
}

func (s *profileService) Providers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.providerOrder...)
}

func (s *profileService) Profile(tier analysis.Complexity) (models.GenerationProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byTier, ok := s.profiles[s.provider]
	if !ok {
		return models.GenerationProfile{}, fmt.Errorf("provider %s not loaded", s.provider)
	}
	profile, ok := byTier[tier]
	if !ok {
		return models.GenerationProfile{}, fmt.Errorf("no %s profile for provider %s", tier, s.provider)
	}
	if s.override != "" {
		profile.APIName = s.override
		profile.DisplayName = s.override
	}
	return profile, nil
}

// Profiles lists the active provider's profiles from cheapest to largest tier.
func (s *profileService) Profiles() ([]models.GenerationProfile, error) {
	out := make([]models.GenerationProfile, 0, len(analysis.Tiers))
	for _, tier := range analysis.Tiers {
		p, err := s.Profile(tier)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
