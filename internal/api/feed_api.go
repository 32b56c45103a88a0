package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/services"
)

// FeedAPI exposes the social feed with likes and comments
type FeedAPI struct {
	feeds *services.FeedService
}

// NewFeedAPI creates a feed API handler
func NewFeedAPI(feeds *services.FeedService) *FeedAPI {
	return &FeedAPI{feeds: feeds}
}

// RegisterRoutes registers the feed endpoints on an authenticated group
func (a *FeedAPI) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/feeds", a.create)
	group.GET("/feeds", a.page)
	group.GET("/feeds/mine", a.mine)
	group.GET("/feeds/user/:id", a.byUser)
	group.DELETE("/feeds/:id", a.delete)
	group.POST("/feeds/:id/like", a.toggleLike)
	group.GET("/feeds/:id/comments", a.comments)
	group.POST("/feeds/:id/comments", a.addComment)
	group.DELETE("/comments/:id", a.deleteComment)
}

type createFeedRequest struct {
	Type     string `json:"type" binding:"required,oneof=TEXT IMAGE_AND_TEXT RECIPE"`
	Text     string `json:"text"`
	Image    string `json:"image"`
	RecipeID *int64 `json:"recipeId"`
}

func (a *FeedAPI) create(c *gin.Context) {
	var req createFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feed, err := a.feeds.Create(c.Request.Context(), currentUserID(c), services.CreateFeedInput{
		Type:        req.Type,
		Text:        req.Text,
		ImageBase64: req.Image,
		RecipeID:    req.RecipeID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, feed)
}

func (a *FeedAPI) page(c *gin.Context) {
	page := 0
	if raw := c.Query("page"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid page"})
			return
		}
		page = parsed
	}

	feeds, err := a.feeds.Page(c.Request.Context(), page)
	if err != nil {
		respondError(c, err)
		return
	}
	if feeds == nil {
		feeds = []*models.Feed{}
	}
	c.JSON(http.StatusOK, gin.H{
		"page":  page,
		"feeds": feeds,
	})
}

func (a *FeedAPI) mine(c *gin.Context) {
	a.writeUserFeeds(c, currentUserID(c))
}

func (a *FeedAPI) byUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	a.writeUserFeeds(c, id)
}

func (a *FeedAPI) writeUserFeeds(c *gin.Context, userID int64) {
	feeds, err := a.feeds.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if feeds == nil {
		feeds = []*models.Feed{}
	}
	c.JSON(http.StatusOK, feeds)
}

func (a *FeedAPI) delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	if err := a.feeds.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *FeedAPI) toggleLike(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	liked, err := a.feeds.ToggleLike(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

type addCommentRequest struct {
	Message string `json:"message" binding:"required"`
}

func (a *FeedAPI) addComment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	var req addCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := a.feeds.AddComment(c.Request.Context(), currentUserID(c), id, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (a *FeedAPI) comments(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	comments, err := a.feeds.Comments(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

func (a *FeedAPI) deleteComment(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}
	if err := a.feeds.DeleteComment(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
