// Package model holds the shapes of the item-store collections. Timestamps
// stay as the ISO strings the store emits; nothing here parses them.
package model

import "github.com/backlinkflow/backend/pkg/itemstore"

// CategoryRelation is one row of a many-to-many category junction. The
// category side may arrive as a bare id or expanded, depending on projection.
type CategoryRelation struct {
	ID       ID                           `json:"id,omitempty"`
	Category itemstore.Relation[Category] `json:"categories_id"`
}

type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Platform is a catalog entry: a place to post backlinks.
type Platform struct {
	ID              ID                 `json:"id"`
	Name            string             `json:"name"`
	Slug            string             `json:"slug"`
	WebsiteURL      string             `json:"website_url"`
	Description     string             `json:"description"`
	Logo            *string            `json:"logo"`
	DomainAuthority int                `json:"domain_authority"`
	CostType        CostType           `json:"cost_type"`
	Status          PlatformStatus     `json:"status"`
	Categories      []CategoryRelation `json:"categories,omitempty"`
	DateCreated     string             `json:"date_created,omitempty"`
	UserCreated     *ID                `json:"user_created,omitempty"`
}

// CategorySlugs returns the slugs of the resolved category relations.
// Unresolved relations are skipped: a projection that did not expand the
// relation carries no slug to match on.
func (p Platform) CategorySlugs() []string {
	slugs := make([]string, 0, len(p.Categories))
	for _, rel := range p.Categories {
		if rel.Category.Resolved() {
			slugs = append(slugs, rel.Category.Value.Slug)
		}
	}
	return slugs
}

type Project struct {
	ID          ID                 `json:"id"`
	UserID      ID                 `json:"user_id,omitempty"`
	Name        string             `json:"name"`
	WebsiteURL  *string            `json:"website_url"`
	Categories  []CategoryRelation `json:"categories,omitempty"`
	DateCreated string             `json:"date_created,omitempty"`
	DateUpdated string             `json:"date_updated,omitempty"`
}

// TagSlugs returns the slugs of the project's resolved category relations.
func (p Project) TagSlugs() []string {
	slugs := make([]string, 0, len(p.Categories))
	for _, rel := range p.Categories {
		if rel.Category.Resolved() {
			slugs = append(slugs, rel.Category.Value.Slug)
		}
	}
	return slugs
}

// TrackingItem is one project's status record for one platform. At most one
// exists per (project, platform) pair.
type TrackingItem struct {
	ID              ID                           `json:"id"`
	ProjectID       ID                           `json:"project_id"`
	Platform        itemstore.Relation[Platform] `json:"platform_id"`
	Status          TrackingStatus               `json:"status"`
	Notes           *string                      `json:"notes"`
	LiveBacklinkURL *string                      `json:"live_backlink_url"`
	DateCreated     string                       `json:"date_created,omitempty"`
	DateUpdated     string                       `json:"date_updated,omitempty"`
}

type User struct {
	ID           ID           `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	AvatarURL    *string      `json:"avatar_url"`
	AuthProvider AuthProvider `json:"auth_provider"`
	ProviderID   *string      `json:"provider_id,omitempty"`
	PasswordHash *string      `json:"password_hash,omitempty"`
	DateCreated  string       `json:"date_created,omitempty"`
	LastLogin    *string      `json:"last_login,omitempty"`
}

// Public strips fields that must never leave the server.
func (u User) Public() User {
	u.PasswordHash = nil
	return u
}
