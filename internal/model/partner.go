// Package model defines the domain types shared by the discovery and compliance pipelines.
package model

import (
	"encoding/json"
	"time"
)

// Category is one of the fixed luxury-service verticals a partner belongs to.
type Category string

// Partner categories.
const (
	CategoryAviation        Category = "aviation"
	CategoryYacht           Category = "yacht"
	CategoryHospitality     Category = "hospitality"
	CategoryDining          Category = "dining"
	CategoryEvents          Category = "events"
	CategorySecurity        Category = "security"
	CategoryRealEstate      Category = "real_estate"
	CategoryAutomotive      Category = "automotive"
	CategoryWellness        Category = "wellness"
	CategoryArtCollectibles Category = "art_collectibles"
)

// Categories lists every partner category in a stable order.
var Categories = []Category{
	CategoryAviation,
	CategoryYacht,
	CategoryHospitality,
	CategoryDining,
	CategoryEvents,
	CategorySecurity,
	CategoryRealEstate,
	CategoryAutomotive,
	CategoryWellness,
	CategoryArtCollectibles,
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Priority is the LLM-assigned outreach tier of a candidate.
type Priority string

// Candidate priorities.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// IsValid reports whether p is a known priority.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// MatchScore maps a priority onto its fixed match score.
func (p Priority) MatchScore() int {
	switch p {
	case PriorityHigh:
		return 90
	case PriorityMedium:
		return 70
	default:
		return 50
	}
}

// CandidateSuggestion is a single prospective partner produced by discovery.
type CandidateSuggestion struct {
	CompanyName     string   `json:"company_name"`
	Category        Category `json:"category"`
	Subcategory     string   `json:"subcategory,omitempty"`
	Description     string   `json:"description"`
	Website         string   `json:"website,omitempty"`
	CoverageRegions []string `json:"coverage_regions,omitempty"`
	Priority        Priority `json:"priority"`
	MatchReason     string   `json:"match_reason"`
	ValidatedEmail  string   `json:"validated_email,omitempty"`
	MatchScore      int      `json:"match_score"`
}

// DiscoveryRequest is the input of a discovery run.
type DiscoveryRequest struct {
	Requirements string   `json:"requirements"`
	Regions      []string `json:"regions,omitempty"`
	Category     string   `json:"category,omitempty"`
	AutoOutreach bool     `json:"autoOutreach,omitempty"`
}

// SearchResult is a raw web search hit.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Markdown    string `json:"markdown,omitempty"`
}

// Snippet returns the best available text for the hit.
func (r SearchResult) Snippet() string {
	if r.Description != "" {
		return r.Description
	}
	return r.Markdown
}

// OutreachResult reports one automatic invite attempt.
type OutreachResult struct {
	Company    string `json:"company"`
	Email      string `json:"email,omitempty"`
	Success    bool   `json:"success"`
	InviteLink string `json:"invite_link,omitempty"`
	Error      string `json:"error,omitempty"`
}

// DiscoveryCacheEntry is a fingerprinted discovery payload stored in the settings table.
type DiscoveryCacheEntry struct {
	UpdatedAt time.Time
	Key       string
	Value     json.RawMessage
}

// IsStale reports whether the entry is older than ttl at now.
func (e DiscoveryCacheEntry) IsStale(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.UpdatedAt) >= ttl
}
