package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/houstoncollective/streamadmin/internal/api/middleware"
	"github.com/houstoncollective/streamadmin/internal/core/domain"
	"github.com/houstoncollective/streamadmin/internal/core/ports"
)

// UserHandler exposes the admin-only user-management endpoints.
type UserHandler struct {
	userService ports.UserService
}

func NewUserHandler(userService ports.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

type createUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=8"`
	Email    string `json:"email" validate:"required,email"`
	Role     string `json:"role" validate:"required,oneof=guest viewer editor admin"`
	FullName string `json:"full_name"`
}

type updateUserRequest struct {
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *string `json:"role" validate:"omitempty,oneof=guest viewer editor admin"`
	FullName *string `json:"full_name"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password" validate:"omitempty,min=8"`
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.userService.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Create(c echo.Context) error {
	var req createUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	actor := middleware.CurrentAuth(c).User
	user, err := h.userService.Create(c.Request().Context(), requestContext(c), actor, ports.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		Role:     domain.Role(req.Role),
		FullName: req.FullName,
	})
	if err != nil {
		return mapUserError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req updateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var role *domain.Role
	if req.Role != nil {
		r := domain.Role(*req.Role)
		role = &r
	}

	actor := middleware.CurrentAuth(c).User
	user, err := h.userService.Update(c.Request().Context(), requestContext(c), actor, id, ports.UpdateUserInput{
		Email:    req.Email,
		Role:     role,
		FullName: req.FullName,
		IsActive: req.IsActive,
		Password: req.Password,
	})
	if err != nil {
		return mapUserError(err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Deactivate(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	actor := middleware.CurrentAuth(c).User
	if err := h.userService.Deactivate(c.Request().Context(), requestContext(c), actor, id); err != nil {
		return mapUserError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *UserHandler) Unlock(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	actor := middleware.CurrentAuth(c).User
	if err := h.userService.Unlock(c.Request().Context(), requestContext(c), actor, id); err != nil {
		return mapUserError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return id, nil
}

func mapUserError(err error) error {
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrUserExists):
		return echo.NewHTTPError(http.StatusConflict, "username or email already in use")
	case errors.Is(err, domain.ErrInvalidRole), errors.Is(err, domain.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user details")
	default:
		return err
	}
}
