package providers

const (
	googleIssuer   = "https://accounts.google.com"
	googleAuthURL  = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
)

// DefaultProfiles is the built-in provider table.
func DefaultProfiles() []Profile {
	return []Profile{
		{
			Name:                  "gmail",
			DisplayName:           "Gmail",
			AuthorizationEndpoint: googleAuthURL,
			TokenEndpoint:         googleTokenURL,
			Scope:                 "https://mail.google.com/",
			PKCERequired:          true,
			Issuer:                googleIssuer,
		},
		{
			Name:                  "calendar",
			DisplayName:           "Google Calendar",
			AuthorizationEndpoint: googleAuthURL,
			TokenEndpoint:         googleTokenURL,
			Scope:                 "https://www.googleapis.com/auth/calendar",
			PKCERequired:          true,
			Issuer:                googleIssuer,
		},
		{
			Name:                  "docs",
			DisplayName:           "Google Docs",
			AuthorizationEndpoint: googleAuthURL,
			TokenEndpoint:         googleTokenURL,
			Scope:                 "https://www.googleapis.com/auth/documents",
			PKCERequired:          true,
			Issuer:                googleIssuer,
		},
		{
			Name:                  "sheets",
			DisplayName:           "Google Sheets",
			AuthorizationEndpoint: googleAuthURL,
			TokenEndpoint:         googleTokenURL,
			Scope:                 "https://www.googleapis.com/auth/spreadsheets",
			PKCERequired:          true,
			Issuer:                googleIssuer,
		},
		{
			Name:                  "linear",
			DisplayName:           "Linear",
			AuthorizationEndpoint: "https://linear.app/oauth/authorize",
			TokenEndpoint:         "https://api.linear.app/oauth/token",
			Scope:                 "read,write,issues:create,comments:create",
			PKCERequired:          false,
		},
		{
			Name:                  "slack",
			DisplayName:           "Slack",
			AuthorizationEndpoint: "https://slack.com/oauth/v2/authorize",
			TokenEndpoint:         "https://slack.com/api/oauth.v2.access",
			Scope:                 "channels:read,chat:write,users:read",
			PKCERequired:          true,
		},
		{
			Name:                  "x",
			DisplayName:           "X",
			AuthorizationEndpoint: "https://twitter.com/i/oauth2/authorize",
			TokenEndpoint:         "https://api.x.com/2/oauth2/token",
			Scope:                 "tweet.read tweet.write users.read follows.read follows.write offline.access",
			PKCERequired:          true,
		},
	}
}

// Default returns a registry holding DefaultProfiles.
func Default() *Registry {
	r, err := NewRegistry(DefaultProfiles()...)
	if err != nil {
		panic(err)
	}
	return r
}
