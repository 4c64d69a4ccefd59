package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/middleware"
	"github.com/JustinStark2022/KingdomKidsSecretPlace/internal/models"
)

type adjustRequest struct {
	Date         string `json:"date"`
	DeltaMinutes *int   `json:"deltaMinutes" binding:"required"`
}

type usageRequest struct {
	Date    string `json:"date"`
	Minutes *int   `json:"minutes" binding:"required"`
}

func (h HandlerSet) GetLedger(c *gin.Context) {
	child, ok := targetChild(c)
	if !ok {
		return
	}
	day, ok := h.resolveDay(c, c.Query("date"))
	if !ok {
		return
	}

	entry, err := h.ledger.GetEntry(c.Request.Context(), child.ID, day)
	respond(c, http.StatusOK, newLedgerResponse(entry), err)
}

func (h HandlerSet) AdjustAllowed(c *gin.Context) {
	child, ok := targetChild(c)
	if !ok {
		return
	}
	var req adjustRequest
	if !bindJSON(c, &req) {
		return
	}
	day, ok := h.resolveDay(c, req.Date)
	if !ok {
		return
	}

	entry, err := h.ledger.AdjustAllowed(c.Request.Context(), child.ID, day, *req.DeltaMinutes)
	respond(c, http.StatusOK, newLedgerResponse(entry), err)
}

func (h HandlerSet) RecordUsage(c *gin.Context) {
	child, ok := targetChild(c)
	if !ok {
		return
	}
	var req usageRequest
	if !bindJSON(c, &req) {
		return
	}
	day, ok := h.resolveDay(c, req.Date)
	if !ok {
		return
	}

	entry, err := h.ledger.RecordUsage(c.Request.Context(), child.ID, day, *req.Minutes)
	respond(c, http.StatusOK, newLedgerResponse(entry), err)
}

func (h HandlerSet) resolveDay(c *gin.Context, raw string) (models.Day, bool) {
	day, err := h.ledger.ResolveDay(raw)
	if err != nil {
		middleware.AbortWithError(c, err)
		return "", false
	}
	return day, true
}
