package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/jisap/threads-clone/internal/api"
	"github.com/jisap/threads-clone/internal/domain"
	internal_errors "github.com/jisap/threads-clone/internal/errors"
	"github.com/jisap/threads-clone/internal/logger"
	"github.com/jisap/threads-clone/internal/utils"
)

const (
	maxWebhookBody = 1 << 20
	// organizations carry no bio at the identity provider
	defaultCommunityBio = "org bio"
)

func writeWebhookError(w http.ResponseWriter, r *http.Request, err error) {
	status := internal_errors.StatusCode(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("webhook failed", "error", err)
	}
	utils.WriteJSON(w, status, api.WebhookResponse{Message: utils.ClientMessage(err)})
}

// WebhookHandler applies organization events from the identity provider to
// communities. Deliveries must carry a valid signature.
func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	if h.Webhooks == nil {
		http.NotFound(w, r)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeWebhookError(w, r, internal_errors.BadRequest("Body is too large"))
		return
	}
	if err := h.Webhooks.Verify(r.Header, body); err != nil {
		logger.FromContext(r.Context()).Warn("rejected webhook", "error", err)
		writeWebhookError(w, r, internal_errors.BadRequest("Invalid webhook signature"))
		return
	}

	var event api.WebhookEvent
	if err := utils.DecodeValidate(bytes.NewReader(body), &event); err != nil {
		writeWebhookError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("webhook received", "type", event.Type)

	message, err := h.dispatchWebhook(r, event)
	if internal_errors.IsConflict(err) {
		// redelivery of an event that was already applied
		utils.WriteJSON(w, http.StatusOK, api.WebhookResponse{Message: utils.ClientMessage(err)})
		return
	}
	if err != nil {
		writeWebhookError(w, r, err)
		return
	}
	status := http.StatusCreated
	if message == "" {
		status, message = http.StatusOK, "Event ignored"
	}
	utils.WriteJSON(w, status, api.WebhookResponse{Message: message})
}

func decodeEventData[T any](data json.RawMessage) (T, error) {
	var v T
	if err := utils.DecodeValidate(bytes.NewReader(data), &v); err != nil {
		return v, err
	}
	return v, nil
}

// dispatchWebhook returns an empty message for event types it does not handle.
func (h *Handler) dispatchWebhook(r *http.Request, event api.WebhookEvent) (string, error) {
	ctx := r.Context()
	switch event.Type {
	case api.EventOrganizationCreated:
		org, err := decodeEventData[api.OrganizationData](event.Data)
		if err != nil {
			return "", err
		}
		_, err = h.Communities.Create(ctx, domain.CommunityCreationData{
			ExternalId:  org.Id,
			Name:        org.Name,
			Username:    org.Slug,
			Image:       org.Image(),
			Bio:         defaultCommunityBio,
			CreatedById: org.CreatedBy,
		})
		return "Community created", err

	case api.EventOrganizationUpdated:
		org, err := decodeEventData[api.OrganizationData](event.Data)
		if err != nil {
			return "", err
		}
		err = h.Communities.Update(ctx, domain.CommunityUpdateData{
			ExternalId: org.Id,
			Name:       org.Name,
			Username:   org.Slug,
			Image:      org.Image(),
		})
		return "Community updated", err

	case api.EventOrganizationDeleted:
		org, err := decodeEventData[api.OrganizationData](event.Data)
		if err != nil {
			return "", err
		}
		return "Community deleted", h.Communities.Delete(ctx, org.Id)

	case api.EventOrganizationMembershipCreated:
		membership, err := decodeEventData[api.OrganizationMembershipData](event.Data)
		if err != nil {
			return "", err
		}
		return "Member added", h.Communities.AddMember(ctx, membership.Organization.Id, membership.PublicUserData.UserId)

	case api.EventOrganizationMembershipDeleted:
		membership, err := decodeEventData[api.OrganizationMembershipData](event.Data)
		if err != nil {
			return "", err
		}
		return "Member removed", h.Communities.RemoveMember(ctx, membership.PublicUserData.UserId, membership.Organization.Id)
	}
	return "", nil
}
