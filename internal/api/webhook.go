package api

import "encoding/json"

// Webhook event types emitted by the identity provider for organizations.
const (
	EventOrganizationCreated           = "organization.created"
	EventOrganizationUpdated           = "organization.updated"
	EventOrganizationDeleted           = "organization.deleted"
	EventOrganizationMembershipCreated = "organizationMembership.created"
	EventOrganizationMembershipDeleted = "organizationMembership.deleted"
)

// WebhookEvent is the envelope of every webhook delivery. Data is decoded
// according to Type.
type WebhookEvent struct {
	Type string          `json:"type" validate:"required"`
	Data json.RawMessage `json:"data" validate:"required"`
}

type OrganizationData struct {
	Id        string `json:"id" validate:"required"`
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	ImageUrl  string `json:"image_url"`
	LogoUrl   string `json:"logo_url"`
	CreatedBy string `json:"created_by"`
}

// Image prefers the new image_url field over the legacy logo_url.
func (o OrganizationData) Image() string {
	if o.ImageUrl != "" {
		return o.ImageUrl
	}
	return o.LogoUrl
}

type OrganizationMembershipData struct {
	Organization struct {
		Id string `json:"id" validate:"required"`
	} `json:"organization"`
	PublicUserData struct {
		UserId string `json:"user_id" validate:"required"`
	} `json:"public_user_data"`
}

type WebhookResponse struct {
	Message string `json:"message"`
}
