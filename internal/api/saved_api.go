package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/services"
)

// SavedAPI exposes recipe bookmarks
type SavedAPI struct {
	saved *services.SavedRecipeService
}

// NewSavedAPI creates a saved-recipes API handler
func NewSavedAPI(saved *services.SavedRecipeService) *SavedAPI {
	return &SavedAPI{saved: saved}
}

// RegisterRoutes registers the bookmark endpoints on an authenticated group
func (a *SavedAPI) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/saved-recipes", a.list)
	group.POST("/saved-recipes/:recipeId", a.save)
	group.DELETE("/saved-recipes/:recipeId", a.unsave)
}

func (a *SavedAPI) list(c *gin.Context) {
	bookmarks, err := a.saved.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if bookmarks == nil {
		bookmarks = []*models.SavedRecipe{}
	}
	c.JSON(http.StatusOK, bookmarks)
}

func (a *SavedAPI) save(c *gin.Context) {
	recipeID, err := pathID(c, "recipeId")
	if err != nil {
		return
	}

	bookmark, err := a.saved.Save(c.Request.Context(), currentUserID(c), recipeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookmark)
}

func (a *SavedAPI) unsave(c *gin.Context) {
	recipeID, err := pathID(c, "recipeId")
	if err != nil {
		return
	}
	if err := a.saved.Unsave(c.Request.Context(), currentUserID(c), recipeID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
