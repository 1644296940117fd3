package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/config"
	"github.com/iliyamo/pool-reservation/internal/middleware"
	"github.com/iliyamo/pool-reservation/internal/model"
	"github.com/iliyamo/pool-reservation/internal/repository"
	"github.com/iliyamo/pool-reservation/internal/utils"
)

// MemberStore is the member persistence the HTTP layer uses.
type MemberStore interface {
	List(ctx context.Context) ([]model.Member, error)
	GetByID(ctx context.Context, id string) (model.Member, error)
	GetByUsername(ctx context.Context, username string) (model.Member, error)
	GetByPhone(ctx context.Context, phone string) (model.Member, error)
	Create(ctx context.Context, in repository.NewMember, cost int) (string, error)
}

// TokenStore persists refresh token hashes.
type TokenStore interface {
	StoreRefresh(ctx context.Context, memberID, tokenHash string, exp time.Time) error
	ValidateRefresh(ctx context.Context, tokenHash string, now time.Time) (string, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForMember(ctx context.Context, memberID string) error
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Cfg     config.Config
	Members MemberStore
	Tokens  TokenStore
	Now     Clock
}

func NewAuthHandler(cfg config.Config, m MemberStore, t TokenStore, now Clock) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Members: m, Tokens: t, Now: now}
}

type loginReq struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type refreshReq struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type logoutReq struct {
	RefreshToken string `json:"refresh_token"`
}

type registerMemberReq struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Name     string `json:"name" validate:"required,max=128"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=ADMIN PRINCIPAL DEPENDENT INDIVIDUAL"`
	Email    string `json:"email" validate:"omitempty,email"`
	Phone    string `json:"phone" validate:"omitempty,min=7,max=32"`
	Status   string `json:"status" validate:"omitempty,max=32"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	Member  model.Member `json:"member"`
	Access  tokenPart    `json:"access"`
	Refresh tokenPart    `json:"refresh"`
}

// Login verifies username and password and returns a token pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	m, err := h.Members.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, apperr.ErrNoRecord) {
			return fail(c, apperr.New(apperr.Unauthorized, "invalid credentials"))
		}
		return fail(c, err)
	}
	if !utils.VerifyPassword(m.PasswordHash, req.Password) {
		return fail(c, apperr.New(apperr.Unauthorized, "invalid credentials"))
	}
	resp, err := h.issue(ctx, m)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Refresh rotates a refresh token: the presented one is revoked and a new
// pair is issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	hash := utils.HashRefreshRaw(strings.TrimSpace(req.RefreshToken))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	memberID, err := h.Tokens.ValidateRefresh(ctx, hash, h.Now())
	if err != nil {
		return fail(c, apperr.New(apperr.Unauthorized, "invalid refresh"))
	}
	if err := h.Tokens.RevokeByHash(ctx, hash); err != nil {
		return fail(c, err)
	}
	m, err := h.Members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, apperr.ErrNoRecord) {
			return fail(c, apperr.New(apperr.Unauthorized, "invalid refresh"))
		}
		return fail(c, err)
	}
	resp, err := h.issue(ctx, m)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout revokes the refresh token in the body, or every token of the
// authenticated member when the body has none.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutReq
	_ = c.Bind(&req)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if raw := strings.TrimSpace(req.RefreshToken); raw != "" {
		if err := h.Tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw)); err != nil {
			return fail(c, err)
		}
		return c.NoContent(http.StatusNoContent)
	}
	id := middleware.MemberID(c)
	if id == "" {
		return fail(c, apperr.New(apperr.Validation, "refresh_token required"))
	}
	if err := h.Tokens.RevokeAllForMember(ctx, id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated member.
func (h *AuthHandler) Me(c echo.Context) error {
	m, err := h.Members.GetByID(c.Request().Context(), middleware.MemberID(c))
	if err != nil {
		if errors.Is(err, apperr.ErrNoRecord) {
			return fail(c, apperr.New(apperr.Unauthorized, "member no longer exists"))
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, m)
}

// RegisterMember lets an administrator create a member account.
func (h *AuthHandler) RegisterMember(c echo.Context) error {
	var req registerMemberReq
	if err := bind(c, &req); err != nil {
		return fail(c, err)
	}
	role, _ := model.ParseRole(req.Role)
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	id, err := h.Members.Create(ctx, repository.NewMember{
		Username: req.Username,
		FullName: req.Name,
		Password: req.Password,
		Role:     role,
		Email:    req.Email,
		Phone:    req.Phone,
		Status:   req.Status,
	}, h.Cfg.BcryptCost)
	if err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "USERNAME_TAKEN", "message": "username already exists"})
		}
		return fail(c, err)
	}
	log.Info().Str("component", "auth").Str("member_id", id).Str("role", string(role)).Msg("member registered")
	return c.JSON(http.StatusCreated, echo.Map{"id": id, "username": strings.ToLower(strings.TrimSpace(req.Username)), "role": role})
}

func (h *AuthHandler) issue(ctx context.Context, m model.Member) (authResp, error) {
	now := h.Now()
	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, m.ID, string(m.Role), time.Duration(h.Cfg.AccessTTLMin)*time.Minute, now)
	if err != nil {
		return authResp{}, err
	}
	refresh, err := utils.NewRefreshToken(time.Duration(h.Cfg.RefreshTTLDays)*24*time.Hour, now)
	if err != nil {
		return authResp{}, err
	}
	if err := h.Tokens.StoreRefresh(ctx, m.ID, utils.HashRefreshRaw(refresh.Raw), refresh.Exp); err != nil {
		return authResp{}, err
	}
	return authResp{
		Member:  m,
		Access:  tokenPart{Token: access.Token, Expires: access.Exp},
		Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
	}, nil
}
