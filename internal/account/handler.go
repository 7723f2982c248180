package account

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"resumind/internal/shared/server/middleware"
	"resumind/internal/shared/server/respond"
	"resumind/internal/shared/telemetry"
)

const guestIDHeader = "X-Guest-Id"

// Handler exposes account-level operations that span owner namespaces.
type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/account/claim-guest", h.claimGuest)
}

// claimGuest moves the records of the guest named by X-Guest-Id to the
// signed-in caller. Guests themselves cannot claim.
func (h *Handler) claimGuest(c *gin.Context) {
	if h.Svc == nil || h.Svc.Resumes == nil {
		respond.Error(c, http.StatusServiceUnavailable, "unavailable", "Service unavailable. Try again.", nil)
		return
	}
	if c.GetBool("isGuest") {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "Sign in to keep your resumes.", gin.H{
			"redirect": middleware.LoginRedirect("/"),
		})
		return
	}

	userID := strings.TrimSpace(middleware.UserIDFromContext(c))
	if userID == "" {
		respond.Error(c, http.StatusUnauthorized, "unauthorized", "login required", nil)
		return
	}

	guestID, issue := parseGuestID(c.GetHeader(guestIDHeader))
	if issue != "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid guest id", []map[string]string{
			{"field": guestIDHeader, "issue": issue},
		})
		return
	}

	result, err := h.Svc.ClaimGuest(c.Request.Context(), "guest:"+guestID, userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "claim_incomplete", "Some resumes could not be moved. Try again.", result)
		return
	}
	telemetry.Info("account.guest_claimed", map[string]any{
		"user_id":  userID,
		"guest_id": guestID,
		"records":  result.MigratedRecords,
	})
	respond.OK(c, result)
}

// parseGuestID returns the trimmed guest id or the validation issue. The id is
// not canonicalised: records were namespaced with the header as sent.
func parseGuestID(raw string) (string, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", "required"
	}
	if _, err := uuid.Parse(raw); err != nil {
		return "", "invalid"
	}
	return raw, ""
}
