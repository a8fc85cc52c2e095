package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/stowage/service/internal/response"
)

// Handler holds HTTP handlers for auth endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new auth Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type issueTokenRequest struct {
	Subject string `json:"subject" example:"uploader-ci"`
	TTL     string `json:"ttl"     example:"720h"`
}

type issueTokenData struct {
	Token     string    `json:"token"     example:"eyJhbGci..."`
	ExpiresAt time.Time `json:"expiresAt" example:"2026-03-29T14:48:34Z"`
}

// IssueToken godoc
//
//	@Summary		Issue bearer token
//	@Description	Mints a signed bearer token for an API client. Requires the API key.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Security		ApiKeyAuth
//	@Param			body	body		issueTokenRequest	true	"Token subject and lifetime"
//	@Success		200		{object}	response.Envelope{data=issueTokenData}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		403		{object}	response.Envelope
//	@Failure		501		{object}	response.Envelope
//	@Router			/auth/token [post]
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req issueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if req.Subject == "" {
		response.BadRequest(w, "subject is required")
		return
	}

	ttl := DefaultTokenTTL
	if req.TTL != "" {
		d, err := time.ParseDuration(req.TTL)
		if err != nil || d <= 0 {
			response.BadRequest(w, "ttl must be a positive duration such as 720h")
			return
		}
		ttl = d
	}

	token, err := h.svc.IssueToken(req.Subject, ttl)
	if err != nil {
		if errors.Is(err, ErrTokensDisabled) {
			response.Error(w, http.StatusNotImplemented, "bearer tokens are disabled")
			return
		}
		response.InternalError(w)
		return
	}

	response.OK(w, issueTokenData{Token: token, ExpiresAt: h.svc.now().Add(ttl).UTC()})
}
