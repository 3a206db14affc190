package handler

import (
	"net/http"

	deliverycontext "academy/internal/delivery/context"
	"academy/internal/delivery/http/response"
	"academy/internal/domain/entity"
	domainerrors "academy/internal/domain/errors"
	"academy/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// UpdateRoleRequest is the body of PATCH /api/admin/identities/:id/role.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// SetBlockedRequest is the body of PATCH /api/admin/identities/:id/blocked.
type SetBlockedRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

// AdminHandler serves the identity administration API.
type AdminHandler struct {
	uc usecase.IdentityAdminUsecase
}

// NewAdminHandler is the constructor for AdminHandler.
func NewAdminHandler(uc usecase.IdentityAdminUsecase) *AdminHandler {
	return &AdminHandler{uc: uc}
}

// GetIdentity returns an identity with its sign-in methods.
func (h *AdminHandler) GetIdentity(c echo.Context) error {
	id, err := identityIDParam(c)
	if err != nil {
		return err
	}

	details, err := h.uc.GetIdentity(c.Request().Context(), deliverycontext.GetSession(c), id)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, newIdentityDetailsView(details))
}

// UpdateRole changes an identity's role.
func (h *AdminHandler) UpdateRole(c echo.Context) error {
	id, err := identityIDParam(c)
	if err != nil {
		return err
	}

	var req UpdateRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	role, err := entity.ParseRole(req.Role)
	if err != nil {
		return domainerrors.ErrValidationFailed.WithDetails("role: unknown value")
	}

	identity, err := h.uc.UpdateRole(c.Request().Context(), deliverycontext.GetSession(c), id, role)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, newIdentityView(identity))
}

// SetBlocked blocks or unblocks an identity.
func (h *AdminHandler) SetBlocked(c echo.Context) error {
	id, err := identityIDParam(c)
	if err != nil {
		return err
	}

	var req SetBlockedRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	identity, err := h.uc.SetBlocked(c.Request().Context(), deliverycontext.GetSession(c), id, *req.Blocked)
	if err != nil {
		return err
	}

	return response.Success(c, http.StatusOK, newIdentityView(identity))
}

func identityIDParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, domainerrors.ErrValidationFailed.WithDetails("id: must be a uuid")
	}

	return id, nil
}
