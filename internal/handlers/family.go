package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/service"
)

type createChildRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

type settingsRequest struct {
	DefaultAllowedMinutes *int `json:"defaultAllowedMinutes" binding:"required"`
}

func (h HandlerSet) CreateChild(c *gin.Context) {
	parent, ok := caller(c)
	if !ok {
		return
	}
	var req createChildRequest
	if !bindJSON(c, &req) {
		return
	}

	child, err := h.family.CreateChild(c.Request.Context(), parent.ID, service.CreateChildInput{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		Email:       req.Email,
	})
	respond(c, http.StatusCreated, gin.H{"child": newAccountResponse(child)}, err)
}

func (h HandlerSet) ListChildren(c *gin.Context) {
	parent, ok := caller(c)
	if !ok {
		return
	}

	children, err := h.family.ListChildren(c.Request.Context(), parent.ID)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}

	resp := make([]accountResponse, 0, len(children))
	for _, child := range children {
		resp = append(resp, newAccountResponse(child))
	}
	c.JSON(http.StatusOK, gin.H{"children": resp})
}

func (h HandlerSet) LookupAccount(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	found, err := h.family.LookupAccount(c.Request.Context(), account, c.Param("accountId"))
	respond(c, http.StatusOK, gin.H{"account": newPublicAccountResponse(found)}, err)
}

func (h HandlerSet) LookupAccountByUsername(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	found, err := h.family.LookupByUsername(c.Request.Context(), account, c.Query("username"))
	respond(c, http.StatusOK, gin.H{"account": newPublicAccountResponse(found)}, err)
}

func (h HandlerSet) GetSettings(c *gin.Context) {
	parent, ok := caller(c)
	if !ok {
		return
	}

	settings, err := h.family.GetSettings(c.Request.Context(), parent.ID)
	respond(c, http.StatusOK, newSettingsResponse(settings), err)
}

func (h HandlerSet) UpdateSettings(c *gin.Context) {
	parent, ok := caller(c)
	if !ok {
		return
	}
	var req settingsRequest
	if !bindJSON(c, &req) {
		return
	}

	settings, err := h.family.UpdateSettings(c.Request.Context(), parent.ID, *req.DefaultAllowedMinutes)
	respond(c, http.StatusOK, newSettingsResponse(settings), err)
}
