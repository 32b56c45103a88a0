package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/search"
)

// SearchAPI exposes semantic recipe search
type SearchAPI struct {
	engine *search.Engine
}

// NewSearchAPI creates a search API handler
func NewSearchAPI(engine *search.Engine) *SearchAPI {
	return &SearchAPI{engine: engine}
}

// RegisterRoutes registers the search endpoint on an authenticated group
func (a *SearchAPI) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/recipes/search", a.search)
}

func (a *SearchAPI) search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	topK := search.DefaultTopK
	if raw := c.Query("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid top_k"})
			return
		}
		topK = parsed
	}

	results, err := a.engine.Search(c.Request.Context(), query, topK)
	if err != nil {
		respondError(c, err)
		return
	}
	if results == nil {
		results = []*models.Recipe{}
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"results": results,
	})
}
