package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"photoshare/internal/access"
	"photoshare/internal/auth"
	"photoshare/internal/errors"
	"photoshare/internal/model"
	"photoshare/internal/service"
)

// UserHandler serves user reads and administration.
type UserHandler struct {
	users       service.UserService
	identity    service.IdentityService
	roles       service.RoleService
	assignments service.RoleAssignmentService
}

// NewUserHandler creates a user handler.
func NewUserHandler(
	users service.UserService,
	identity service.IdentityService,
	roles service.RoleService,
	assignments service.RoleAssignmentService,
) *UserHandler {
	return &UserHandler{
		users:       users,
		identity:    identity,
		roles:       roles,
		assignments: assignments,
	}
}

// AssignRoleRequest names the role to grant.
type AssignRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// AssignRoleResponse describes the recorded assignment.
type AssignRoleResponse struct {
	UserID uint           `json:"user_id"`
	Role   model.RoleName `json:"role"`
}

// UserRoleResponse describes the role a user resolves to.
type UserRoleResponse struct {
	UserID   uint             `json:"user_id"`
	Role     model.RoleName   `json:"role"`
	Fresh    bool             `json:"fresh"`
	Assigned []model.RoleName `json:"assigned"`
}

// GetDetail godoc
// @Summary Get a user by name
// @Tags users
// @Produce json
// @Param user_name path string true "User name"
// @Success 200 {object} service.UserDetail
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/{user_name} [get]
func (h *UserHandler) GetDetail(c echo.Context) error {
	detail, err := h.users.GetDetail(c.Request().Context(), c.Param("user_name"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// Me godoc
// @Summary Get the authenticated user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.UserDetail
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(c echo.Context) error {
	claims, ok := c.Get("user").(*auth.Claims)
	if !ok {
		return errors.ErrAuthentication
	}
	detail, err := h.users.GetDetail(c.Request().Context(), claims.Subject)
	if err != nil {
		return err
	}
	if !detail.Active {
		return errors.ErrAuthentication
	}
	return c.JSON(http.StatusOK, detail)
}

// Block godoc
// @Summary Block a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} model.UserSnapshot
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/block [patch]
func (h *UserHandler) Block(c echo.Context) error {
	return h.setActive(c, false)
}

// Unblock godoc
// @Summary Unblock a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} model.UserSnapshot
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/unblock [patch]
func (h *UserHandler) Unblock(c echo.Context) error {
	return h.setActive(c, true)
}

func (h *UserHandler) setActive(c echo.Context, active bool) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	if p, ok := access.PrincipalFrom(c); ok && p.User.ID == id && !active {
		return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
			Error: "cannot block yourself",
			Code:  "INVALID_REQUEST",
		})
	}

	user, err := h.users.SetActive(c.Request().Context(), id, active)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// AssignRole godoc
// @Summary Assign a role to a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body AssignRoleRequest true "Role"
// @Success 201 {object} AssignRoleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /users/{id}/roles [post]
func (h *UserHandler) AssignRole(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	var req AssignRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	role, err := model.ParseRoleName(req.Role)
	if err != nil {
		return errors.ErrInvalidRole
	}

	ctx := c.Request().Context()
	if _, err := h.identity.LookupByID(ctx, id); err != nil {
		return err
	}
	if _, err := h.assignments.Assign(ctx, id, role); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, AssignRoleResponse{UserID: id, Role: role})
}

// GetRole godoc
// @Summary Resolve the effective role of a user
// @Description The cached answer may lag a recent assignment by up to the role TTL; fresh=true reads the store.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param fresh query bool false "Bypass the cache"
// @Success 200 {object} UserRoleResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /users/{id}/role [get]
func (h *UserHandler) GetRole(c echo.Context) error {
	id, err := userIDParam(c)
	if err != nil {
		return err
	}
	fresh := false
	if v := c.QueryParam("fresh"); v != "" {
		if fresh, err = strconv.ParseBool(v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
				Error: "invalid fresh flag",
				Code:  "INVALID_REQUEST",
			})
		}
	}

	ctx := c.Request().Context()
	var role *model.RoleSnapshot
	if fresh {
		role, err = h.roles.ResolveUserRoleFresh(ctx, id)
	} else {
		role, err = h.roles.ResolveUserRole(ctx, id)
	}
	if err != nil {
		return err
	}

	assigned, err := h.roles.ListUserRoles(ctx, id)
	if err != nil {
		return err
	}
	names := make([]model.RoleName, 0, len(assigned))
	for _, r := range assigned {
		names = append(names, r.Name)
	}

	return c.JSON(http.StatusOK, UserRoleResponse{
		UserID:   id,
		Role:     role.Name,
		Fresh:    fresh,
		Assigned: names,
	})
}
