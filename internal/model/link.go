package model

import (
	"readingcompass/internal/personality"
	"time"
)

// ChildLink associates a parent subject with a child subject.
type ChildLink struct {
	ID        string    `json:"id" bson:"_id"` // parentId/childId
	ParentID  string    `json:"parentId" bson:"parentId"`
	ChildID   string    `json:"childId" bson:"childId"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
}

// LinkCode is a single-use code a child gives a parent to approve a link.
type LinkCode struct {
	Code      string    `json:"code"`
	ChildID   string    `json:"childId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Compatibility view states.
const (
	CompatibilityReady           = "ready"
	CompatibilityNotFound        = "not_found"
	CompatibilityPendingProfiles = "pending_profiles"
)

// CompatibilityView is the parent/child compatibility answer.
type CompatibilityView struct {
	Status         string                            `json:"status"`
	ParentID       string                            `json:"parentId"`
	ChildID        string                            `json:"childId"`
	ParentType     string                            `json:"parentType,omitempty"`
	ChildType      string                            `json:"childType,omitempty"`
	Key            string                            `json:"key,omitempty"`
	Profile        *personality.CompatibilityProfile `json:"profile,omitempty"`
	MissingProfile []string                          `json:"missingProfile,omitempty"`
}
