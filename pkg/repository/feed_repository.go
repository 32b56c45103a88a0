package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/forkfeed/forkfeed/pkg/models"
)

type feedRepository struct {
	db *sqlx.DB
}

// NewFeedRepository creates a new feed repository
func NewFeedRepository(db *sqlx.DB) FeedRepository {
	return &feedRepository{db: db}
}

const feedColumns = `id, user_id, type, text, image, recipe_id, like_count, comment_count, created_at`

// Create inserts a feed entry and populates its generated id
func (r *feedRepository) Create(ctx context.Context, feed *models.Feed) error {
	if feed == nil {
		return errors.New("feed cannot be nil")
	}

	query := `INSERT INTO feeds (user_id, type, text, image, recipe_id, like_count, comment_count)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query,
		feed.UserID,
		feed.Type,
		feed.Text,
		feed.Image,
		feed.RecipeID,
		feed.LikeCount,
		feed.CommentCount,
	).Scan(&feed.ID, &feed.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create feed: %w", err)
	}
	return nil
}

// GetByID retrieves a feed entry by id
func (r *feedRepository) GetByID(ctx context.Context, id int64) (*models.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE id = $1`

	var feed models.Feed
	err := r.db.GetContext(ctx, &feed, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}
	return &feed, nil
}

// ListRecent retrieves one page of the global feed, newest first
func (r *feedRepository) ListRecent(ctx context.Context, page, pageSize int) ([]*models.Feed, error) {
	if page < 0 {
		page = 0
	}
	query := `SELECT ` + feedColumns + ` FROM feeds ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	var feeds []*models.Feed
	if err := r.db.SelectContext(ctx, &feeds, query, pageSize, page*pageSize); err != nil {
		return nil, fmt.Errorf("failed to list recent feeds: %w", err)
	}
	return feeds, nil
}

// ListByUser retrieves all feed entries posted by a user, newest first
func (r *feedRepository) ListByUser(ctx context.Context, userID int64) ([]*models.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE user_id = $1 ORDER BY created_at DESC`

	var feeds []*models.Feed
	if err := r.db.SelectContext(ctx, &feeds, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list feeds for user: %w", err)
	}
	return feeds, nil
}

// ListByRecipe retrieves feed entries referencing a recipe
func (r *feedRepository) ListByRecipe(ctx context.Context, recipeID int64) ([]*models.Feed, error) {
	query := `SELECT ` + feedColumns + ` FROM feeds WHERE recipe_id = $1`

	var feeds []*models.Feed
	if err := r.db.SelectContext(ctx, &feeds, query, recipeID); err != nil {
		return nil, fmt.Errorf("failed to list feeds for recipe: %w", err)
	}
	return feeds, nil
}

// AdjustLikeCount applies a delta to the denormalized like counter
func (r *feedRepository) AdjustLikeCount(ctx context.Context, feedID int64, delta int) error {
	query := `UPDATE feeds SET like_count = like_count + $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, feedID, delta); err != nil {
		return fmt.Errorf("failed to adjust like count: %w", err)
	}
	return nil
}

// AdjustCommentCount applies a delta to the denormalized comment counter
func (r *feedRepository) AdjustCommentCount(ctx context.Context, feedID int64, delta int) error {
	query := `UPDATE feeds SET comment_count = comment_count + $2 WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, feedID, delta); err != nil {
		return fmt.Errorf("failed to adjust comment count: %w", err)
	}
	return nil
}

// Delete removes a feed entry
func (r *feedRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM feeds WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	return nil
}

// deleteByFeedIDs is shared by the like and comment repositories
func deleteByFeedIDs(ctx context.Context, db *sqlx.DB, table string, feedIDs []int64) error {
	if len(feedIDs) == 0 {
		return nil
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE feed_id = ANY($1)`, table)

	if _, err := db.ExecContext(ctx, query, pq.Array(feedIDs)); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	return nil
}
