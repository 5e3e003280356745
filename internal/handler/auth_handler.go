package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/daylog-app/daylog-api/internal/middleware"
	"github.com/daylog-app/daylog-api/internal/models"
	"github.com/daylog-app/daylog-api/internal/service"
	appErrors "github.com/daylog-app/daylog-api/pkg/errors"
	"github.com/daylog-app/daylog-api/pkg/response"
)

// RefreshCookieName is the cookie carrying the refresh token between the
// browser and the auth endpoints. The access token travels as a bearer
// header instead and is never stored server side.
const RefreshCookieName = "refreshToken"

// AuthHandler wires the session endpoints to the auth service. The refresh
// token is exchanged exclusively through an HTTP-only, SameSite=Strict
// cookie whose lifetime matches the ledger record.
type AuthHandler struct {
	service      *service.AuthService
	secureCookie bool
}

// NewAuthHandler creates a new handler. secureCookie should be set outside
// of local development.
func NewAuthHandler(svc *service.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: svc, secureCookie: secureCookie}
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate by login id and password; sets the refresh cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /user/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	req.IP = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setRefreshCookie(c, res.RefreshToken, res.RefreshExpiresAt)
	response.JSON(c, http.StatusOK, gin.H{"access_token": res.AccessToken})
}

// Refresh godoc
// @Summary Refresh access token
// @Description Exchange the refresh cookie for a new access token
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /user/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	rawToken, err := c.Cookie(RefreshCookieName)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidToken, "refresh token required"))
		return
	}

	accessToken, err := h.service.Refresh(c.Request.Context(), rawToken)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"access_token": accessToken})
}

// Logout godoc
// @Summary Logout current session
// @Description Revoke the refresh token and clear the cookie; always succeeds
// @Tags Authentication
// @Produce json
// @Success 204 {object} response.Envelope
// @Router /user/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if rawToken, err := c.Cookie(RefreshCookieName); err == nil {
		h.service.Logout(c.Request.Context(), rawToken)
	}

	h.clearRefreshCookie(c)
	response.NoContent(c)
}

// Me godoc
// @Summary Get current principal
// @Description Returns the authenticated user's id
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /user/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	response.JSON(c, http.StatusOK, principal)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, value string, expiresAt time.Time) {
	c.SetSameSite(http.SameSiteStrictMode)
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetCookie(RefreshCookieName, value, maxAge, "/", "", h.secureCookie, true)
}

func (h *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, "", -1, "/", "", h.secureCookie, true)
}
