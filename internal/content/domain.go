// Package content serves the marketing site's fixture-backed content:
// platforms, services and team. Mutations from the back-office are held in
// memory only; fixtures are the source of truth on every start.
package content

// Platform is one media property marketed by the hub.
type Platform struct {
	ID          string `json:"id"`
	Name        string `json:"name" validate:"required,min=2,max=120"`
	Tagline     string `json:"tagline" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=2000"`
	Category    string `json:"category" validate:"required,oneof=production distribution analytics events"`
	URL         string `json:"url" validate:"omitempty,url"`
	Featured    bool   `json:"featured"`
}

// Service is one offering on the services page.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// TeamMember is one entry on the team page.
type TeamMember struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Title string `json:"title"`
	Bio   string `json:"bio"`
}
