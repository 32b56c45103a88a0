package services

import (
	"context"
	"fmt"
	"time"

	"github.com/forkfeed/forkfeed/pkg/cache"
	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/observability"
	"github.com/forkfeed/forkfeed/pkg/repository"
	"github.com/forkfeed/forkfeed/pkg/storage"
)

const (
	// FeedPageSize is the fixed page length of the social feed
	FeedPageSize = 20

	feedCacheKey = "feed:page:0"
	feedCacheTTL = time.Minute
)

// CreateFeedInput carries a new feed entry's fields
type CreateFeedInput struct {
	Type        string
	Text        string
	ImageBase64 string
	RecipeID    *int64
}

// FeedService manages the social feed: entries, likes and comments. The
// first page is cached in Redis and invalidated on every write that would
// change it.
type FeedService struct {
	feeds    repository.FeedRepository
	likes    repository.LikeRepository
	comments repository.CommentRepository
	recipes  repository.RecipeRepository
	cache    cache.Cache
	images   storage.ImageStore
	logger   observability.Logger
}

// NewFeedService creates a feed service. cache and images may be nil.
func NewFeedService(
	feeds repository.FeedRepository,
	likes repository.LikeRepository,
	comments repository.CommentRepository,
	recipes repository.RecipeRepository,
	feedCache cache.Cache,
	images storage.ImageStore,
	logger observability.Logger,
) *FeedService {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	return &FeedService{
		feeds:    feeds,
		likes:    likes,
		comments: comments,
		recipes:  recipes,
		cache:    feedCache,
		images:   images,
		logger:   logger,
	}
}

// Create validates and persists a feed entry according to its type:
// TEXT needs text, IMAGE_AND_TEXT needs an image, RECIPE needs an existing
// recipe id.
func (s *FeedService) Create(ctx context.Context, userID int64, input CreateFeedInput) (*models.Feed, error) {
	feedType, err := models.ParseFeedType(input.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	feed := &models.Feed{
		UserID: userID,
		Type:   feedType,
		Text:   input.Text,
	}

	switch feedType {
	case models.FeedTypeText:
		if input.Text == "" {
			return nil, fmt.Errorf("%w: text entries need text", ErrInvalidInput)
		}
	case models.FeedTypeImageAndText:
		if input.ImageBase64 == "" {
			return nil, fmt.Errorf("%w: image entries need an image", ErrInvalidInput)
		}
		if s.images == nil {
			return nil, fmt.Errorf("%w: image uploads are not enabled", ErrInvalidInput)
		}
		url, err := s.images.UploadBase64(ctx, input.ImageBase64)
		if err != nil {
			return nil, fmt.Errorf("failed to upload feed image: %w", err)
		}
		feed.Image = url
	case models.FeedTypeRecipe:
		if input.RecipeID == nil {
			return nil, fmt.Errorf("%w: recipe entries need a recipe id", ErrInvalidInput)
		}
		recipe, err := s.recipes.GetByID(ctx, *input.RecipeID)
		if err != nil {
			return nil, fmt.Errorf("failed to load recipe: %w", err)
		}
		if recipe == nil {
			return nil, ErrNotFound
		}
		feed.RecipeID = input.RecipeID
	}

	if err := s.feeds.Create(ctx, feed); err != nil {
		return nil, fmt.Errorf("failed to create feed entry: %w", err)
	}
	s.invalidateFirstPage(ctx)
	return feed, nil
}

// Page returns one page of the feed, newest first. Page zero is served
// from cache when possible.
func (s *FeedService) Page(ctx context.Context, page int) ([]*models.Feed, error) {
	if page < 0 {
		page = 0
	}

	if page == 0 && s.cache != nil {
		var cached []*models.Feed
		if err := s.cache.Get(ctx, feedCacheKey, &cached); err == nil {
			return cached, nil
		} else if err != cache.ErrNotFound {
			s.logger.Warn("Feed cache read failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	feeds, err := s.feeds.ListRecent(ctx, page, FeedPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed page: %w", err)
	}

	if page == 0 && s.cache != nil {
		if err := s.cache.Set(ctx, feedCacheKey, feeds, feedCacheTTL); err != nil {
			s.logger.Warn("Feed cache write failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
	return feeds, nil
}

// ListByUser returns one user's feed entries, newest first
func (s *FeedService) ListByUser(ctx context.Context, userID int64) ([]*models.Feed, error) {
	return s.feeds.ListByUser(ctx, userID)
}

// ToggleLike likes the entry if the user has not liked it yet, otherwise
// removes the like. Returns whether the entry is liked afterwards.
func (s *FeedService) ToggleLike(ctx context.Context, userID, feedID int64) (bool, error) {
	feed, err := s.feeds.GetByID(ctx, feedID)
	if err != nil {
		return false, fmt.Errorf("failed to load feed entry: %w", err)
	}
	if feed == nil {
		return false, ErrNotFound
	}

	existing, err := s.likes.GetByUserAndFeed(ctx, userID, feedID)
	if err != nil {
		return false, fmt.Errorf("failed to check existing like: %w", err)
	}

	if existing != nil {
		if err := s.likes.Delete(ctx, existing.ID); err != nil {
			return false, fmt.Errorf("failed to remove like: %w", err)
		}
		if err := s.feeds.AdjustLikeCount(ctx, feedID, -1); err != nil {
			return false, fmt.Errorf("failed to update like count: %w", err)
		}
		s.invalidateFirstPage(ctx)
		return false, nil
	}

	if err := s.likes.Create(ctx, &models.Like{UserID: userID, FeedID: feedID}); err != nil {
		return false, fmt.Errorf("failed to store like: %w", err)
	}
	if err := s.feeds.AdjustLikeCount(ctx, feedID, 1); err != nil {
		return false, fmt.Errorf("failed to update like count: %w", err)
	}
	s.invalidateFirstPage(ctx)
	return true, nil
}

// AddComment attaches a comment to a feed entry
func (s *FeedService) AddComment(ctx context.Context, userID, feedID int64, message string) (*models.Comment, error) {
	if message == "" {
		return nil, fmt.Errorf("%w: comment message is required", ErrInvalidInput)
	}
	feed, err := s.feeds.GetByID(ctx, feedID)
	if err != nil {
		return nil, fmt.Errorf("failed to load feed entry: %w", err)
	}
	if feed == nil {
		return nil, ErrNotFound
	}

	comment := &models.Comment{UserID: userID, FeedID: feedID, Message: message}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to store comment: %w", err)
	}
	if err := s.feeds.AdjustCommentCount(ctx, feedID, 1); err != nil {
		return nil, fmt.Errorf("failed to update comment count: %w", err)
	}
	s.invalidateFirstPage(ctx)
	return comment, nil
}

// Comments lists a feed entry's comments, oldest first
func (s *FeedService) Comments(ctx context.Context, feedID int64) ([]*models.Comment, error) {
	return s.comments.ListByFeed(ctx, feedID)
}

// DeleteComment removes a comment. Only its author may delete it.
func (s *FeedService) DeleteComment(ctx context.Context, userID, commentID int64) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return fmt.Errorf("failed to load comment: %w", err)
	}
	if comment == nil {
		return ErrNotFound
	}
	if comment.UserID != userID {
		return ErrForbidden
	}

	if err := s.comments.Delete(ctx, commentID); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if err := s.feeds.AdjustCommentCount(ctx, comment.FeedID, -1); err != nil {
		return fmt.Errorf("failed to update comment count: %w", err)
	}
	s.invalidateFirstPage(ctx)
	return nil
}

// Delete removes a feed entry with its likes and comments. Only the owner
// may delete.
func (s *FeedService) Delete(ctx context.Context, userID, feedID int64) error {
	feed, err := s.feeds.GetByID(ctx, feedID)
	if err != nil {
		return fmt.Errorf("failed to load feed entry: %w", err)
	}
	if feed == nil {
		return ErrNotFound
	}
	if feed.UserID != userID {
		return ErrForbidden
	}

	ids := []int64{feedID}
	if err := s.likes.DeleteByFeedIDs(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete likes: %w", err)
	}
	if err := s.comments.DeleteByFeedIDs(ctx, ids); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}
	if err := s.feeds.Delete(ctx, feedID); err != nil {
		return fmt.Errorf("failed to delete feed entry: %w", err)
	}
	s.invalidateFirstPage(ctx)
	return nil
}

func (s *FeedService) invalidateFirstPage(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, feedCacheKey); err != nil {
		s.logger.Warn("Feed cache invalidation failed", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
