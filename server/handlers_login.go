package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-qr-login-relay/relay"
)

type initiateLoginRequest struct {
	PartnerKey   string `json:"partnerKey"`
	SiteIdentity string `json:"siteIdentity"`
}

type initiateLoginResponse struct {
	Token string `json:"token"`
	// QRImage is a base64 PNG without a data-URI prefix; partners add their
	// own "data:image/png;base64," when rendering inline.
	QRImage string `json:"qrImage"`
}

// InitiateLoginHandler opens a login session for a registered partner and
// returns the session token plus its QR rendering.
func (s *Server) InitiateLoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req initiateLoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
			return
		}

		result, err := s.relay.InitiateLogin(r.Context(), req.PartnerKey, req.SiteIdentity)
		if err != nil {
			switch {
			case errors.Is(err, relay.InvalidRequestErr):
				writeError(w, http.StatusBadRequest, "invalid_request", "partnerKey and siteIdentity are required")
			case errors.Is(err, relay.UnauthorizedPartnerErr):
				writeError(w, http.StatusUnauthorized, "unauthorized_partner", "unknown partner/site pairing")
			default:
				log.Error().Err(err).Msg("initiate login failed")
				writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, initiateLoginResponse{
			Token:   result.Token,
			QRImage: base64.StdEncoding.EncodeToString(result.QRImage),
		})
	}
}

type pollStatusRequest struct {
	Token string `json:"token"`
}

type pollStatusResponse struct {
	Status    relay.StatusType `json:"status"`
	UID       string           `json:"uid,omitempty"`
	Assertion string           `json:"assertion,omitempty"`
}

// PollLoginStatusHandler reports the current state of a session. Unknown
// tokens report not_found inside a 200 body: polling too early or too late
// is a legitimate partner behavior, not a transport failure.
func (s *Server) PollLoginStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pollStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON")
			return
		}

		status, err := s.relay.PollLoginStatus(r.Context(), req.Token)
		if err != nil {
			switch {
			case errors.Is(err, relay.InvalidRequestErr):
				writeError(w, http.StatusBadRequest, "invalid_request", "token is required")
			default:
				log.Error().Err(err).Msg("poll login status failed")
				writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
			}
			return
		}

		writeJSON(w, http.StatusOK, pollStatusResponse{
			Status:    status.State,
			UID:       status.UID,
			Assertion: status.Assertion,
		})
	}
}
