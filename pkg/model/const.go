package model

import "github.com/backlinkflow/backend/pkg/itemstore"

// Collection names in the item store.
const (
	CollectionPlatforms  = "platforms"
	CollectionCategories = "categories"
	CollectionUsers      = "users"
	CollectionProjects   = "projects"
	CollectionTracking   = "project_tracking"
)

// GeneralSlug is the distinguished category meaning "relevant to every
// project". Platforms carrying it are recommended unconditionally.
const GeneralSlug = "general"

type ID = itemstore.ID

// Platform lifecycle. User submissions start in pending_review; only
// published entries are browsable and recommendable.
type PlatformStatus string

const (
	PlatformPublished     PlatformStatus = "published"
	PlatformPendingReview PlatformStatus = "pending_review"
	PlatformRejected      PlatformStatus = "rejected"
)

type CostType string

const (
	CostFree     CostType = "free"
	CostPaid     CostType = "paid"
	CostFreemium CostType = "freemium"
)

func (c CostType) Valid() bool {
	switch c {
	case CostFree, CostPaid, CostFreemium:
		return true
	}
	return false
}

// TrackingStatus is a kanban column. There is no transition graph: any status
// is reachable from any other by explicit user action.
type TrackingStatus string

const (
	TrackingTodo       TrackingStatus = "todo"
	TrackingInProgress TrackingStatus = "in_progress"
	TrackingSubmitted  TrackingStatus = "submitted"
	TrackingLive       TrackingStatus = "live"
	TrackingRejected   TrackingStatus = "rejected"
)

func (s TrackingStatus) Valid() bool {
	switch s {
	case TrackingTodo, TrackingInProgress, TrackingSubmitted, TrackingLive, TrackingRejected:
		return true
	}
	return false
}

type AuthProvider string

const (
	ProviderEmail  AuthProvider = "email"
	ProviderGoogle AuthProvider = "google"
	ProviderGitHub AuthProvider = "github"
)
