package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/apperr"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/middleware"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

type alertActionRequest struct {
	Action string `json:"action" binding:"required,oneof=acknowledge dismiss"`
}

func (h HandlerSet) ListAlerts(c *gin.Context) {
	parent, ok := caller(c)
	if !ok {
		return
	}

	includeHandled := false
	if raw := c.Query("includeHandled"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			middleware.AbortWithError(c, apperr.Validation("includeHandled must be true or false"))
			return
		}
		includeHandled = v
	}

	alerts, err := h.alerts.List(c.Request.Context(), parent.ID, includeHandled)
	if err != nil {
		respond(c, 0, nil, err)
		return
	}

	resp := make([]alertResponse, 0, len(alerts))
	for _, alert := range alerts {
		resp = append(resp, newAlertResponse(alert))
	}
	c.JSON(http.StatusOK, gin.H{"alerts": resp})
}

func (h HandlerSet) ActOnAlert(c *gin.Context) {
	parent, ok := caller(c)
	if !ok {
		return
	}
	var req alertActionRequest
	if !bindJSON(c, &req) {
		return
	}

	alert, err := h.alerts.Act(c.Request.Context(), parent.ID, c.Param("alertId"), models.AlertAction(req.Action))
	respond(c, http.StatusOK, gin.H{"alert": newAlertResponse(alert)}, err)
}
