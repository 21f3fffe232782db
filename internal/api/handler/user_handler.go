package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/meridianlabs/identity-api/internal/core/ports"
)

// UserHandler exposes the admin user-management endpoints. The RBAC
// middleware in front of these routes guarantees an admin caller.
type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List returns a page of users.
//
// @Summary      List users
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        offset  query     int  false  "Page offset"
// @Param        limit   query     int  false  "Page size (max 100)"
// @Success      200     {object}  Response{data=userListResponse}
// @Failure      403     {object}  Response
// @Router       /users [get]
func (h *UserHandler) List(c echo.Context) error {
	offset, _ := strconv.ParseInt(c.QueryParam("offset"), 10, 64)
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)

	users, total, err := h.userService.List(c.Request().Context(), offset, limit)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", userListResponse{Users: users, Total: total})
}

// Get returns a single user by id.
//
// @Summary      Get user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  Response{data=domain.User}
// @Failure      404  {object}  Response
// @Router       /users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	user, err := h.userService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "OK", user)
}

// UpdateRole changes a user's role.
//
// @Summary      Update user role
// @Tags         users
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateRoleRequest  true  "New role"
// @Success      200   {object}  Response{data=domain.User}
// @Failure      400   {object}  Response
// @Failure      404   {object}  Response
// @Router       /users/{id} [patch]
func (h *UserHandler) UpdateRole(c echo.Context) error {
	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.userService.UpdateRole(c.Request().Context(), c.Param("id"), req.Role)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "Role updated", user)
}

// Delete removes a user account.
//
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  Response
// @Failure      404  {object}  Response
// @Router       /users/{id} [delete]
func (h *UserHandler) Delete(c echo.Context) error {
	if err := h.userService.Delete(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return respond(c, http.StatusOK, "User deleted", nil)
}
