package handler

import (
	"net/http"

	"github.com/fieldops/backoffice-api/internal/mapper"
	"go.uber.org/zap"
)

type AuthHandler struct {
	logger *zap.Logger
}

func NewAuthHandler(logger *zap.Logger) *AuthHandler {
	return &AuthHandler{logger: logger}
}

// Me godoc
// @Summary Get current actor
// @Description Returns the authenticated user with role, department and the role-level permissions it grants
// @Tags Auth
// @Produce json
// @Success 200 {object} domain.ActorDTO
// @Failure 401 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, mapper.ToActorDTO(actor))
}
