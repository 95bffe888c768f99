package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aroschi/gestimmo/internal/config"
	"github.com/aroschi/gestimmo/internal/model"
	"github.com/aroschi/gestimmo/internal/repository"
	"github.com/aroschi/gestimmo/internal/utils"
)

// AuthHandler implements registration, the two login flows (owner and
// renter) and the refresh token lifecycle. Owners self-register;
// renter accounts are created by their owner, so the renter side only
// has login.
type AuthHandler struct {
	Owners  *repository.OwnerRepo
	Renters *repository.RenterRepo
	Tokens  *repository.TokenRepo
	Cfg     config.Config
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(owners *repository.OwnerRepo, renters *repository.RenterRepo, tokens *repository.TokenRepo, cfg config.Config) *AuthHandler {
	if owners == nil || renters == nil || tokens == nil {
		panic("nil repository passed to NewAuthHandler")
	}
	return &AuthHandler{Owners: owners, Renters: renters, Tokens: tokens, Cfg: cfg}
}

// issueTokens builds an access/refresh pair for a user and persists
// the refresh hash. userKind selects the refresh_tokens partition.
func (h *AuthHandler) issueTokens(c echo.Context, userID uint64, role, userKind string) (echo.Map, error) {
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return nil, err
	}
	refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
	if err != nil {
		return nil, err
	}
	if err := h.Tokens.Store(c.Request().Context(), userKind, userID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return nil, err
	}
	return echo.Map{
		"token_type":         "Bearer",
		"access_token":       access.Token,
		"access_expires_at":  access.Exp,
		"refresh_token":      refresh.Raw,
		"refresh_expires_at": refresh.Exp,
	}, nil
}

// Register handles POST /v1/auth/register and creates an owner account.
func (h *AuthHandler) Register(c echo.Context) error {
	var body struct {
		Name     string `json:"name"`
		Lastname string `json:"lastname"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Email = strings.TrimSpace(strings.ToLower(body.Email))
	if body.Email == "" || body.Password == "" || strings.TrimSpace(body.Name) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email and password are required"})
	}

	hash, err := utils.HashPassword(body.Password, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not hash password"})
	}
	owner, err := h.Owners.Create(c.Request().Context(), strings.TrimSpace(body.Name), strings.TrimSpace(body.Lastname), body.Email, hash)
	if err != nil {
		return writeRepoError(c, err)
	}

	tokens, err := h.issueTokens(c, owner.ID, model.RoleOwner, repository.TokenUserOwner)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue tokens"})
	}
	tokens["user"] = echo.Map{"id": owner.ID, "name": owner.Name, "lastname": owner.Lastname, "email": owner.Email, "role": model.RoleOwner}
	return c.JSON(http.StatusCreated, tokens)
}

// Login handles POST /v1/auth/login for owners.
func (h *AuthHandler) Login(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	owner, err := h.Owners.GetByEmail(c.Request().Context(), strings.TrimSpace(strings.ToLower(body.Email)))
	if err != nil || !utils.VerifyPassword(owner.PasswordHash, body.Password) {
		// One message for both cases so the endpoint cannot be used
		// to enumerate accounts.
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	tokens, err := h.issueTokens(c, owner.ID, model.RoleOwner, repository.TokenUserOwner)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue tokens"})
	}
	tokens["user"] = echo.Map{"id": owner.ID, "name": owner.Name, "lastname": owner.Lastname, "email": owner.Email, "role": model.RoleOwner}
	return c.JSON(http.StatusOK, tokens)
}

// RenterLogin handles POST /v1/auth/renter-login. A deactivated
// account is refused even with the right password.
func (h *AuthHandler) RenterLogin(c echo.Context) error {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	renter, err := h.Renters.GetByEmail(c.Request().Context(), strings.TrimSpace(strings.ToLower(body.Email)))
	if err != nil || !utils.VerifyPassword(renter.PasswordHash, body.Password) {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}
	if renter.Status == model.RenterInactive {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "account is disabled"})
	}

	tokens, err := h.issueTokens(c, renter.ID, model.RoleRenter, repository.TokenUserRenter)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue tokens"})
	}
	tokens["user"] = echo.Map{"id": renter.ID, "name": renter.Name, "lastname": renter.Lastname, "email": renter.Email, "role": model.RoleRenter}
	return c.JSON(http.StatusOK, tokens)
}

// resolveRefresh validates the presented refresh token and returns the
// user it belongs to, re-checking that a renter account is still
// active.
func (h *AuthHandler) resolveRefresh(c echo.Context, raw string) (userKind string, userID uint64, role string, err error) {
	userKind, userID, err = h.Tokens.FindValid(c.Request().Context(), utils.HashRefreshRaw(raw))
	if err != nil {
		return "", 0, "", err
	}
	if userKind == repository.TokenUserRenter {
		renter, rerr := h.Renters.GetByID(c.Request().Context(), userID)
		if rerr != nil {
			return "", 0, "", rerr
		}
		if renter.Status == model.RenterInactive {
			return "", 0, "", repository.ErrForbidden
		}
		return userKind, userID, model.RoleRenter, nil
	}
	return userKind, userID, model.RoleOwner, nil
}

// Refresh handles POST /v1/auth/refresh. The presented token is
// revoked and a fresh pair is issued (rotation).
func (h *AuthHandler) Refresh(c echo.Context) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err != nil || body.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	userKind, userID, role, err := h.resolveRefresh(c, body.RefreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	if err := h.Tokens.Revoke(c.Request().Context(), utils.HashRefreshRaw(body.RefreshToken)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	tokens, err := h.issueTokens(c, userID, role, userKind)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue tokens"})
	}
	return c.JSON(http.StatusOK, tokens)
}

// RefreshAccess handles POST /v1/auth/refresh-access. A new access
// token is issued without rotating the refresh token.
func (h *AuthHandler) RefreshAccess(c echo.Context) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err != nil || body.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	_, userID, role, err := h.resolveRefresh(c, body.RefreshToken)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, userID, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not issue tokens"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"token_type":        "Bearer",
		"access_token":      access.Token,
		"access_expires_at": access.Exp,
	})
}

// Logout handles POST /v1/auth/logout by revoking the presented
// refresh token. No JWT is required: holding the refresh token is
// proof enough.
func (h *AuthHandler) Logout(c echo.Context) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.Bind(&body); err != nil || body.RefreshToken == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token is required"})
	}
	if err := h.Tokens.Revoke(c.Request().Context(), utils.HashRefreshRaw(body.RefreshToken)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh token"})
	}
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /v1/me and returns the authenticated identity.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	role := getRole(c)
	switch role {
	case model.RoleRenter:
		renter, err := h.Renters.GetByID(c.Request().Context(), id)
		if err != nil {
			return writeRepoError(c, err)
		}
		out := renterJSON(renter)
		out["role"] = role
		return c.JSON(http.StatusOK, out)
	default:
		owner, err := h.Owners.GetByID(c.Request().Context(), id)
		if err != nil {
			return writeRepoError(c, err)
		}
		return c.JSON(http.StatusOK, echo.Map{
			"id": owner.ID, "name": owner.Name, "lastname": owner.Lastname,
			"email": owner.Email, "role": role, "created_at": owner.CreatedAt,
		})
	}
}
