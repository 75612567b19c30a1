package config

// DomainConfig holds the business rules that are tunable without code changes
type DomainConfig struct {
	// Identity constraints
	MinPasswordLength int
	MaxNameLength     int
	MaxUsernameLength int
	MaxSkills         int
	DefaultHeadline   string
	DefaultLocation   string

	// Network
	SuggestionLimit int

	// Feed constraints
	MaxPostLength    int
	MaxCommentLength int
	MaxLikeRetries   int
	MaxFeedPosts     int

	// Resume tailoring
	MaxJobDescriptionLength int
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MinPasswordLength: 12,
		MaxNameLength:     100,
		MaxUsernameLength: 50,
		MaxSkills:         100,
		DefaultHeadline:   "HireNest user",
		DefaultLocation:   "Earth",

		SuggestionLimit: 4,

		MaxPostLength:    10000,
		MaxCommentLength: 2000,
		MaxLikeRetries:   5,
		MaxFeedPosts:     200,

		MaxJobDescriptionLength: 20000,
	}
}
