package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/middleware"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/service"
)

type registerRequest struct {
	Username    string `json:"username" binding:"required"`
	Email       string `json:"email" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName" binding:"required"`
	Role        string `json:"role" binding:"required"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Account   accountResponse `json:"account"`
}

// RegisterAccount is the self-registration entry point. It creates parents
// only; children are added through POST /children by their parent.
func (h HandlerSet) RegisterAccount(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	role := models.Role(req.Role)
	if role == models.RoleChild {
		middleware.AbortWithError(c, apperr.Validation("child accounts are created by their parent"))
		return
	}

	result, err := h.auth.Register(c.Request.Context(), service.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Role:        role,
	})
	if err != nil {
		middleware.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newAuthResponse(result))
}

func (h HandlerSet) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	respond(c, http.StatusOK, newAuthResponse(result), err)
}

// Logout exists for client symmetry. Tokens are stateless and simply
// discarded by the client.
func (h HandlerSet) Logout(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func (h HandlerSet) Me(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	self, err := h.family.GetSelf(c.Request.Context(), account.ID)
	respond(c, http.StatusOK, gin.H{"account": newAccountResponse(self)}, err)
}

func newAuthResponse(result service.AuthResult) authResponse {
	return authResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		Account:   newAccountResponse(result.Account),
	}
}
