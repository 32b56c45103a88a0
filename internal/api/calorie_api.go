package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forkfeed/forkfeed/pkg/services"
)

const dayFormat = "2006-01-02"

// CalorieAPI exposes eaten-recipe tracking and the daily nutrition report
type CalorieAPI struct {
	calories *services.CalorieService
}

// NewCalorieAPI creates a calorie API handler
func NewCalorieAPI(calories *services.CalorieService) *CalorieAPI {
	return &CalorieAPI{calories: calories}
}

// RegisterRoutes registers the tracking endpoints on an authenticated group
func (a *CalorieAPI) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/calories/toggle", a.toggle)
	group.PUT("/calories/portion", a.updatePortion)
	group.GET("/calories/report", a.report)
}

type toggleRequest struct {
	RecipeID int64   `json:"recipeId" binding:"required"`
	Day      string  `json:"day" binding:"required"`
	Portion  float64 `json:"portion"`
}

func (a *CalorieAPI) toggle(c *gin.Context) {
	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := time.Parse(dayFormat, req.Day)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day, expected YYYY-MM-DD"})
		return
	}

	eaten, err := a.calories.Toggle(c.Request.Context(), currentUserID(c), req.RecipeID, day, req.Portion)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"eaten": eaten})
}

type portionRequest struct {
	RecipeID int64   `json:"recipeId" binding:"required"`
	Day      string  `json:"day" binding:"required"`
	Portion  float64 `json:"portion" binding:"required,gt=0"`
}

func (a *CalorieAPI) updatePortion(c *gin.Context) {
	var req portionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := time.Parse(dayFormat, req.Day)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day, expected YYYY-MM-DD"})
		return
	}

	if err := a.calories.UpdatePortion(c.Request.Context(), currentUserID(c), req.RecipeID, day, req.Portion); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *CalorieAPI) report(c *gin.Context) {
	raw := c.Query("day")
	if raw == "" {
		raw = time.Now().Format(dayFormat)
	}
	day, err := time.Parse(dayFormat, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid day, expected YYYY-MM-DD"})
		return
	}

	report, err := a.calories.Report(c.Request.Context(), currentUserID(c), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
