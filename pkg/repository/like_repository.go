package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/forkfeed/forkfeed/pkg/models"
)

type likeRepository struct {
	db *sqlx.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *sqlx.DB) LikeRepository {
	return &likeRepository{db: db}
}

// Create inserts a like
func (r *likeRepository) Create(ctx context.Context, like *models.Like) error {
	if like == nil {
		return errors.New("like cannot be nil")
	}

	query := `INSERT INTO likes (user_id, feed_id) VALUES ($1, $2) RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query, like.UserID, like.FeedID).
		Scan(&like.ID, &like.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create like: %w", err)
	}
	return nil
}

// GetByUserAndFeed retrieves a user's like on a feed entry, if any
func (r *likeRepository) GetByUserAndFeed(ctx context.Context, userID, feedID int64) (*models.Like, error) {
	query := `SELECT id, user_id, feed_id, created_at FROM likes WHERE user_id = $1 AND feed_id = $2`

	var like models.Like
	err := r.db.GetContext(ctx, &like, query, userID, feedID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get like: %w", err)
	}
	return &like, nil
}

// Delete removes a like by id
func (r *likeRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM likes WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete like: %w", err)
	}
	return nil
}

// DeleteByFeedIDs removes all likes for the given feed entries
func (r *likeRepository) DeleteByFeedIDs(ctx context.Context, feedIDs []int64) error {
	return deleteByFeedIDs(ctx, r.db, "likes", feedIDs)
}
