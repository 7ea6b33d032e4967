package discovery

import "github.com/Veraticus/concierge/internal/model"

// queryTemplates holds the canned search phrases per category.
var queryTemplates = map[model.Category][]string{
	model.CategoryAviation: {
		"private jet charter company",
		"luxury private aviation services",
		"VIP helicopter transfer operator",
	},
	model.CategoryYacht: {
		"luxury yacht charter company",
		"superyacht management and charter broker",
	},
	model.CategoryHospitality: {
		"luxury boutique hotel",
		"five star resort partnership program",
		"private luxury villa rental",
	},
	model.CategoryDining: {
		"michelin star restaurant private dining",
		"private chef services luxury",
	},
	model.CategoryEvents: {
		"luxury event planning company",
		"exclusive VIP event access provider",
	},
	model.CategorySecurity: {
		"executive protection services",
		"close protection security company high net worth",
	},
	model.CategoryRealEstate: {
		"luxury real estate agency",
		"prime property advisory high net worth",
	},
	model.CategoryAutomotive: {
		"exotic supercar rental",
		"luxury chauffeur service",
	},
	model.CategoryWellness: {
		"luxury wellness retreat",
		"private medical concierge",
		"high end spa resort",
	},
	model.CategoryArtCollectibles: {
		"fine art advisory services",
		"private art dealer rare collectibles",
	},
}

const (
	maxQueries         = 6
	maxSearchResults   = 15
	maxSnippetLength   = 300
	maxSuggestions     = 10
	maxOutreach        = 3
	cacheKeyPrefix     = "partner_discovery_cache_"
	fingerprintLength  = 50
	aiQueryCount       = 3
	suggestionToolName = "suggest_partners"
)
