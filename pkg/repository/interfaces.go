// Package repository provides sqlx-backed persistence for the primary
// relational store. Every repository follows the same contract: lookups
// return (nil, nil) when no row matches, and every failure is wrapped with
// enough context to identify the operation.
package repository

import (
	"context"
	"time"

	"github.com/forkfeed/forkfeed/pkg/models"
)

// UserRepository manages user accounts
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateRefreshToken(ctx context.Context, id int64, token string) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateProfilePhoto(ctx context.Context, id int64, photoURL string) error
}

// InterestFormRepository manages the one-per-user profile questionnaire
type InterestFormRepository interface {
	Create(ctx context.Context, form *models.InterestForm) error
	GetByUser(ctx context.Context, userID int64) (*models.InterestForm, error)
	Update(ctx context.Context, form *models.InterestForm) error
}

// RecipeRepository manages recipes. FindByID mirrors GetByID under the
// name the search engine's RecipeCatalog dependency expects.
type RecipeRepository interface {
	Create(ctx context.Context, recipe *models.Recipe) error
	GetByID(ctx context.Context, id int64) (*models.Recipe, error)
	FindByID(ctx context.Context, id int64) (*models.Recipe, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Recipe, error)
	ListAll(ctx context.Context) ([]*models.Recipe, error)
	Delete(ctx context.Context, id int64) error
}

// FeedRepository manages feed entries
type FeedRepository interface {
	Create(ctx context.Context, feed *models.Feed) error
	GetByID(ctx context.Context, id int64) (*models.Feed, error)
	ListRecent(ctx context.Context, page, pageSize int) ([]*models.Feed, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Feed, error)
	ListByRecipe(ctx context.Context, recipeID int64) ([]*models.Feed, error)
	AdjustLikeCount(ctx context.Context, feedID int64, delta int) error
	AdjustCommentCount(ctx context.Context, feedID int64, delta int) error
	Delete(ctx context.Context, id int64) error
}

// LikeRepository manages feed likes
type LikeRepository interface {
	Create(ctx context.Context, like *models.Like) error
	GetByUserAndFeed(ctx context.Context, userID, feedID int64) (*models.Like, error)
	Delete(ctx context.Context, id int64) error
	DeleteByFeedIDs(ctx context.Context, feedIDs []int64) error
}

// CommentRepository manages feed comments
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListByFeed(ctx context.Context, feedID int64) ([]*models.Comment, error)
	Delete(ctx context.Context, id int64) error
	DeleteByFeedIDs(ctx context.Context, feedIDs []int64) error
}

// SavedRecipeRepository manages bookmarked recipes
type SavedRecipeRepository interface {
	Create(ctx context.Context, saved *models.SavedRecipe) error
	ListByUser(ctx context.Context, userID int64) ([]*models.SavedRecipe, error)
	DeleteByUserAndRecipe(ctx context.Context, userID, recipeID int64) error
	DeleteByRecipe(ctx context.Context, recipeID int64) error
}

// EasinessRateRepository manages per-user recipe difficulty ratings
type EasinessRateRepository interface {
	Upsert(ctx context.Context, rate *models.EasinessRate) error
	GetByUserAndRecipe(ctx context.Context, userID, recipeID int64) (*models.EasinessRate, error)
	AverageForRecipe(ctx context.Context, recipeID int64) (float64, error)
}

// CalorieRepository manages eaten-recipe tracking entries
type CalorieRepository interface {
	Create(ctx context.Context, entry *models.CalorieEntry) error
	GetByUserRecipeAndDay(ctx context.Context, userID, recipeID int64, day time.Time) (*models.CalorieEntry, error)
	ListByUserAndDay(ctx context.Context, userID int64, day time.Time) ([]*models.CalorieEntry, error)
	UpdatePortion(ctx context.Context, id int64, portion float64) error
	Delete(ctx context.Context, id int64) error
}
