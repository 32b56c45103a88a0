package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/forkfeed/forkfeed/pkg/models"
)

type commentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

// Create inserts a comment
func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment == nil {
		return errors.New("comment cannot be nil")
	}

	query := `INSERT INTO comments (user_id, feed_id, message) VALUES ($1, $2, $3)
			  RETURNING id, created_at`

	err := r.db.QueryRowxContext(ctx, query, comment.UserID, comment.FeedID, comment.Message).
		Scan(&comment.ID, &comment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment by id
func (r *commentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `SELECT id, user_id, feed_id, message, created_at FROM comments WHERE id = $1`

	var comment models.Comment
	err := r.db.GetContext(ctx, &comment, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// ListByFeed retrieves the comments on a feed entry, oldest first
func (r *commentRepository) ListByFeed(ctx context.Context, feedID int64) ([]*models.Comment, error) {
	query := `SELECT id, user_id, feed_id, message, created_at FROM comments
			  WHERE feed_id = $1 ORDER BY created_at ASC`

	var comments []*models.Comment
	if err := r.db.SelectContext(ctx, &comments, query, feedID); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// Delete removes a comment by id
func (r *commentRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM comments WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}

// DeleteByFeedIDs removes all comments for the given feed entries
func (r *commentRepository) DeleteByFeedIDs(ctx context.Context, feedIDs []int64) error {
	return deleteByFeedIDs(ctx, r.db, "comments", feedIDs)
}
