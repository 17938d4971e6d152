package handler

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/slot-booking-api/internal/booking"
	"github.com/iliyamo/slot-booking-api/internal/config"
	"github.com/iliyamo/slot-booking-api/internal/middleware"
	"github.com/iliyamo/slot-booking-api/internal/model"
	"github.com/iliyamo/slot-booking-api/internal/repository"
	"github.com/iliyamo/slot-booking-api/internal/utils"
)

const authTimeout = 5 * time.Second

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg    config.Config
	Users  *repository.UserRepo
	Tokens *repository.TokenRepo
}

func NewAuthHandler(cfg config.Config, u *repository.UserRepo, t *repository.TokenRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: u, Tokens: t}
}

// ----- DTOs -----

type signupReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Contact  string `json:"contact"`
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}
type authResp struct {
	User    model.User `json:"user"`
	Access  tokenPart  `json:"access"`
	Refresh tokenPart  `json:"refresh"`
}

func (r *signupReq) validate() map[string]string {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Contact = strings.TrimSpace(r.Contact)

	fields := map[string]string{}
	if n := utf8.RuneCountInString(r.Name); n < 2 || n > 50 {
		fields["name"] = "must be between 2 and 50 characters"
	}
	if addr, err := mail.ParseAddress(r.Email); err != nil || addr.Address != r.Email {
		fields["email"] = "must be a valid email address"
	}
	if !utils.StrongPassword(r.Password) {
		fields["password"] = "must be 8 to 72 bytes with a lowercase letter, an uppercase letter and a digit"
	}
	if r.Contact != "" && !booking.ValidContact(r.Contact) {
		fields["contact"] = "must be a valid phone number"
	}
	return fields
}

// Signup creates a customer account and returns tokens immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body"})
	}
	if fields := req.validate(); len(fields) > 0 {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "validation failed", Fields: fields})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	u, err := h.Users.Create(ctx, repository.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Contact:  req.Contact,
		Role:     model.RoleCustomer,
	}, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return c.JSON(http.StatusConflict, errorBody{Error: "Email already registered"})
		}
		return internalError(c, h.Cfg.IsDevelopment(), "Registration failed", err)
	}
	return h.issue(ctx, c, http.StatusCreated, u)
}

// Login verifies credentials and returns a new token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "email/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "Invalid credentials"})
		}
		return internalError(c, h.Cfg.IsDevelopment(), "Authentication failed", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "Invalid credentials"})
	}
	return h.issue(ctx, c, http.StatusOK, u)
}

// Refresh validates a refresh token by hash, revokes it and issues a new
// pair.  A token that was revoked concurrently is rejected.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "refresh_token required"})
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	userID, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "invalid refresh"})
		}
		return internalError(c, h.Cfg.IsDevelopment(), "refresh failed", err)
	}
	revoked, err := h.Tokens.RevokeByHash(ctx, hash)
	if err != nil {
		return internalError(c, h.Cfg.IsDevelopment(), "refresh failed", err)
	}
	if !revoked {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "invalid refresh"})
	}

	u, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusUnauthorized, errorBody{Error: "invalid refresh"})
		}
		return internalError(c, h.Cfg.IsDevelopment(), "load user failed", err)
	}
	return h.issue(ctx, c, http.StatusOK, u)
}

// Logout revokes the refresh token in the body, or every refresh token of
// the authenticated user when the body has none.  The route runs behind
// JWTAuth.
func (h *AuthHandler) Logout(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}
	var req refreshReq
	_ = c.Bind(&req)
	raw := strings.TrimSpace(req.RefreshToken)

	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	if raw == "" {
		if err := h.Tokens.RevokeAllForUser(ctx, uid); err != nil {
			return internalError(c, h.Cfg.IsDevelopment(), "logout failed", err)
		}
		return c.NoContent(http.StatusNoContent)
	}

	hash := utils.HashRefreshRaw(raw)
	owner, err := h.Tokens.ValidateRefresh(ctx, hash)
	if err != nil || owner != uid {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "invalid refresh token"})
	}
	if _, err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return internalError(c, h.Cfg.IsDevelopment(), "logout failed", err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), authTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, errorBody{Error: "user not found"})
		}
		return internalError(c, h.Cfg.IsDevelopment(), "load user failed", err)
	}
	return c.JSON(http.StatusOK, u)
}

func (h *AuthHandler) issue(ctx context.Context, c echo.Context, status int, u model.User) error {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, u.ID, u.Role, h.Cfg.AccessTTLMin)
	if err != nil {
		return internalError(c, h.Cfg.IsDevelopment(), "issue access failed", err)
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return internalError(c, h.Cfg.IsDevelopment(), "issue refresh failed", err)
	}
	if err := h.Tokens.StoreRefresh(ctx, u.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return internalError(c, h.Cfg.IsDevelopment(), "save refresh failed", err)
	}
	return c.JSON(status, authResp{
		User:    u,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp}, // raw back to client
	})
}
