package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h HandlerSet) ListLessons(c *gin.Context) {
	lessons, err := h.rewards.ListLessons(c.Request.Context())
	if err != nil {
		respond(c, 0, nil, err)
		return
	}

	resp := make([]lessonResponse, 0, len(lessons))
	for _, lesson := range lessons {
		resp = append(resp, newLessonResponse(lesson, false))
	}
	c.JSON(http.StatusOK, gin.H{"lessons": resp})
}

func (h HandlerSet) GetLesson(c *gin.Context) {
	lesson, err := h.rewards.GetLesson(c.Request.Context(), c.Param("lessonId"))
	respond(c, http.StatusOK, gin.H{"lesson": newLessonResponse(lesson, true)}, err)
}

func (h HandlerSet) StartLesson(c *gin.Context) {
	child, ok := caller(c)
	if !ok {
		return
	}

	completion, err := h.rewards.Start(c.Request.Context(), child.ID, c.Param("lessonId"))
	respond(c, http.StatusOK, gin.H{"completion": newCompletionResponse(completion)}, err)
}

// CompleteLesson answers 200 for both the first completion and repeats;
// "credited" tells them apart.
func (h HandlerSet) CompleteLesson(c *gin.Context) {
	child, ok := caller(c)
	if !ok {
		return
	}

	result, err := h.rewards.Complete(c.Request.Context(), child.ID, c.Param("lessonId"))
	respond(c, http.StatusOK, gin.H{
		"completion": newCompletionResponse(result.Completion),
		"ledger":     newLedgerResponse(result.Entry),
		"credited":   result.Credited,
	}, err)
}

func (h HandlerSet) ChildProgress(c *gin.Context) {
	child, ok := targetChild(c)
	if !ok {
		return
	}

	progress, err := h.rewards.Progress(c.Request.Context(), child.ID)
	respond(c, http.StatusOK, gin.H{"lessons": newProgressResponses(progress)}, err)
}

func (h HandlerSet) Dashboard(c *gin.Context) {
	child, ok := targetChild(c)
	if !ok {
		return
	}

	dash, err := h.rewards.Dashboard(c.Request.Context(), child)
	respond(c, http.StatusOK, gin.H{
		"child":            newAccountResponse(dash.Child),
		"today":            newLedgerResponse(dash.Today),
		"lessons":          newProgressResponses(dash.Lessons),
		"completedLessons": dash.Completed,
	}, err)
}
