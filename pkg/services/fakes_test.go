package services

import (
	"context"
	"fmt"
	"time"

	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/repository/embeddings"
)

// In-memory repository fakes. They implement the same (nil, nil) lookup
// contract as the sqlx implementations.

type fakeUserRepo struct {
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*models.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, user *models.User) error {
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = time.Now()
	copied := *user
	r.users[user.ID] = &copied
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*models.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) UpdateRefreshToken(_ context.Context, id int64, token string) error {
	if user, ok := r.users[id]; ok {
		user.RefreshToken = token
	}
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	if user, ok := r.users[id]; ok {
		user.PasswordHash = hash
	}
	return nil
}

func (r *fakeUserRepo) UpdateProfilePhoto(_ context.Context, id int64, photoURL string) error {
	if user, ok := r.users[id]; ok {
		user.ProfilePhoto = photoURL
	}
	return nil
}

type fakeInterestFormRepo struct {
	nextID int64
	forms  map[int64]*models.InterestForm
}

func newFakeInterestFormRepo() *fakeInterestFormRepo {
	return &fakeInterestFormRepo{forms: map[int64]*models.InterestForm{}}
}

func (r *fakeInterestFormRepo) Create(_ context.Context, form *models.InterestForm) error {
	r.nextID++
	form.ID = r.nextID
	form.CreatedAt = time.Now()
	copied := *form
	r.forms[form.ID] = &copied
	return nil
}

func (r *fakeInterestFormRepo) GetByUser(_ context.Context, userID int64) (*models.InterestForm, error) {
	for _, form := range r.forms {
		if form.UserID == userID {
			copied := *form
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeInterestFormRepo) Update(_ context.Context, form *models.InterestForm) error {
	if _, ok := r.forms[form.ID]; ok {
		copied := *form
		r.forms[form.ID] = &copied
	}
	return nil
}

type fakeRecipeRepo struct {
	nextID  int64
	recipes map[int64]*models.Recipe
}

func newFakeRecipeRepo() *fakeRecipeRepo {
	return &fakeRecipeRepo{recipes: map[int64]*models.Recipe{}}
}

func (r *fakeRecipeRepo) Create(_ context.Context, recipe *models.Recipe) error {
	r.nextID++
	recipe.ID = r.nextID
	recipe.CreatedAt = time.Now()
	copied := *recipe
	r.recipes[recipe.ID] = &copied
	return nil
}

func (r *fakeRecipeRepo) GetByID(_ context.Context, id int64) (*models.Recipe, error) {
	recipe, ok := r.recipes[id]
	if !ok {
		return nil, nil
	}
	copied := *recipe
	return &copied, nil
}

func (r *fakeRecipeRepo) FindByID(ctx context.Context, id int64) (*models.Recipe, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeRecipeRepo) ListByUser(_ context.Context, userID int64) ([]*models.Recipe, error) {
	var out []*models.Recipe
	for _, recipe := range r.recipes {
		if recipe.UserID == userID {
			copied := *recipe
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRecipeRepo) ListAll(_ context.Context) ([]*models.Recipe, error) {
	var out []*models.Recipe
	for _, recipe := range r.recipes {
		copied := *recipe
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeRecipeRepo) Delete(_ context.Context, id int64) error {
	delete(r.recipes, id)
	return nil
}

type fakeFeedRepo struct {
	nextID int64
	feeds  map[int64]*models.Feed
}

func newFakeFeedRepo() *fakeFeedRepo {
	return &fakeFeedRepo{feeds: map[int64]*models.Feed{}}
}

func (r *fakeFeedRepo) Create(_ context.Context, feed *models.Feed) error {
	r.nextID++
	feed.ID = r.nextID
	feed.CreatedAt = time.Now()
	copied := *feed
	r.feeds[feed.ID] = &copied
	return nil
}

func (r *fakeFeedRepo) GetByID(_ context.Context, id int64) (*models.Feed, error) {
	feed, ok := r.feeds[id]
	if !ok {
		return nil, nil
	}
	copied := *feed
	return &copied, nil
}

func (r *fakeFeedRepo) ListRecent(_ context.Context, page, pageSize int) ([]*models.Feed, error) {
	// Newest first by id, paged
	var out []*models.Feed
	for id := r.nextID; id > 0 && len(out) < (page+1)*pageSize; id-- {
		if feed, ok := r.feeds[id]; ok {
			copied := *feed
			out = append(out, &copied)
		}
	}
	start := page * pageSize
	if start >= len(out) {
		return []*models.Feed{}, nil
	}
	return out[start:], nil
}

func (r *fakeFeedRepo) ListByUser(_ context.Context, userID int64) ([]*models.Feed, error) {
	var out []*models.Feed
	for _, feed := range r.feeds {
		if feed.UserID == userID {
			copied := *feed
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeFeedRepo) ListByRecipe(_ context.Context, recipeID int64) ([]*models.Feed, error) {
	var out []*models.Feed
	for _, feed := range r.feeds {
		if feed.RecipeID != nil && *feed.RecipeID == recipeID {
			copied := *feed
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeFeedRepo) AdjustLikeCount(_ context.Context, feedID int64, delta int) error {
	if feed, ok := r.feeds[feedID]; ok {
		feed.LikeCount += delta
	}
	return nil
}

func (r *fakeFeedRepo) AdjustCommentCount(_ context.Context, feedID int64, delta int) error {
	if feed, ok := r.feeds[feedID]; ok {
		feed.CommentCount += delta
	}
	return nil
}

func (r *fakeFeedRepo) Delete(_ context.Context, id int64) error {
	delete(r.feeds, id)
	return nil
}

type fakeLikeRepo struct {
	nextID int64
	likes  map[int64]*models.Like
}

func newFakeLikeRepo() *fakeLikeRepo {
	return &fakeLikeRepo{likes: map[int64]*models.Like{}}
}

func (r *fakeLikeRepo) Create(_ context.Context, like *models.Like) error {
	r.nextID++
	like.ID = r.nextID
	copied := *like
	r.likes[like.ID] = &copied
	return nil
}

func (r *fakeLikeRepo) GetByUserAndFeed(_ context.Context, userID, feedID int64) (*models.Like, error) {
	for _, like := range r.likes {
		if like.UserID == userID && like.FeedID == feedID {
			copied := *like
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeLikeRepo) Delete(_ context.Context, id int64) error {
	delete(r.likes, id)
	return nil
}

func (r *fakeLikeRepo) DeleteByFeedIDs(_ context.Context, feedIDs []int64) error {
	for id, like := range r.likes {
		for _, feedID := range feedIDs {
			if like.FeedID == feedID {
				delete(r.likes, id)
			}
		}
	}
	return nil
}

type fakeCommentRepo struct {
	nextID   int64
	comments map[int64]*models.Comment
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: map[int64]*models.Comment{}}
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *models.Comment) error {
	r.nextID++
	comment.ID = r.nextID
	comment.CreatedAt = time.Now()
	copied := *comment
	r.comments[comment.ID] = &copied
	return nil
}

func (r *fakeCommentRepo) GetByID(_ context.Context, id int64) (*models.Comment, error) {
	comment, ok := r.comments[id]
	if !ok {
		return nil, nil
	}
	copied := *comment
	return &copied, nil
}

func (r *fakeCommentRepo) ListByFeed(_ context.Context, feedID int64) ([]*models.Comment, error) {
	var out []*models.Comment
	for id := int64(1); id <= r.nextID; id++ {
		if comment, ok := r.comments[id]; ok && comment.FeedID == feedID {
			copied := *comment
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeCommentRepo) Delete(_ context.Context, id int64) error {
	delete(r.comments, id)
	return nil
}

func (r *fakeCommentRepo) DeleteByFeedIDs(_ context.Context, feedIDs []int64) error {
	for id, comment := range r.comments {
		for _, feedID := range feedIDs {
			if comment.FeedID == feedID {
				delete(r.comments, id)
			}
		}
	}
	return nil
}

type fakeSavedRepo struct {
	nextID int64
	saved  map[int64]*models.SavedRecipe
}

func newFakeSavedRepo() *fakeSavedRepo {
	return &fakeSavedRepo{saved: map[int64]*models.SavedRecipe{}}
}

func (r *fakeSavedRepo) Create(_ context.Context, bookmark *models.SavedRecipe) error {
	r.nextID++
	bookmark.ID = r.nextID
	copied := *bookmark
	r.saved[bookmark.ID] = &copied
	return nil
}

func (r *fakeSavedRepo) ListByUser(_ context.Context, userID int64) ([]*models.SavedRecipe, error) {
	var out []*models.SavedRecipe
	for id := int64(1); id <= r.nextID; id++ {
		if bookmark, ok := r.saved[id]; ok && bookmark.UserID == userID {
			copied := *bookmark
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeSavedRepo) DeleteByUserAndRecipe(_ context.Context, userID, recipeID int64) error {
	for id, bookmark := range r.saved {
		if bookmark.UserID == userID && bookmark.RecipeID == recipeID {
			delete(r.saved, id)
		}
	}
	return nil
}

func (r *fakeSavedRepo) DeleteByRecipe(_ context.Context, recipeID int64) error {
	for id, bookmark := range r.saved {
		if bookmark.RecipeID == recipeID {
			delete(r.saved, id)
		}
	}
	return nil
}

type fakeEasinessRepo struct {
	rates map[string]*models.EasinessRate
}

func newFakeEasinessRepo() *fakeEasinessRepo {
	return &fakeEasinessRepo{rates: map[string]*models.EasinessRate{}}
}

func easinessKey(userID, recipeID int64) string {
	return fmt.Sprintf("%d/%d", userID, recipeID)
}

func (r *fakeEasinessRepo) Upsert(_ context.Context, rate *models.EasinessRate) error {
	copied := *rate
	r.rates[easinessKey(rate.UserID, rate.RecipeID)] = &copied
	return nil
}

func (r *fakeEasinessRepo) GetByUserAndRecipe(_ context.Context, userID, recipeID int64) (*models.EasinessRate, error) {
	rate, ok := r.rates[easinessKey(userID, recipeID)]
	if !ok {
		return nil, nil
	}
	copied := *rate
	return &copied, nil
}

func (r *fakeEasinessRepo) AverageForRecipe(_ context.Context, recipeID int64) (float64, error) {
	var sum, count float64
	for _, rate := range r.rates {
		if rate.RecipeID == recipeID {
			sum += float64(rate.Rate)
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return sum / count, nil
}

type fakeCalorieRepo struct {
	nextID  int64
	entries map[int64]*models.CalorieEntry
}

func newFakeCalorieRepo() *fakeCalorieRepo {
	return &fakeCalorieRepo{entries: map[int64]*models.CalorieEntry{}}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func (r *fakeCalorieRepo) Create(_ context.Context, entry *models.CalorieEntry) error {
	r.nextID++
	entry.ID = r.nextID
	copied := *entry
	r.entries[entry.ID] = &copied
	return nil
}

func (r *fakeCalorieRepo) GetByUserRecipeAndDay(_ context.Context, userID, recipeID int64, day time.Time) (*models.CalorieEntry, error) {
	for _, entry := range r.entries {
		if entry.UserID == userID && entry.RecipeID == recipeID && sameDay(entry.EatenOn, day) {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeCalorieRepo) ListByUserAndDay(_ context.Context, userID int64, day time.Time) ([]*models.CalorieEntry, error) {
	var out []*models.CalorieEntry
	for id := int64(1); id <= r.nextID; id++ {
		if entry, ok := r.entries[id]; ok && entry.UserID == userID && sameDay(entry.EatenOn, day) {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeCalorieRepo) UpdatePortion(_ context.Context, id int64, portion float64) error {
	if entry, ok := r.entries[id]; ok {
		entry.Portion = portion
	}
	return nil
}

func (r *fakeCalorieRepo) Delete(_ context.Context, id int64) error {
	delete(r.entries, id)
	return nil
}

// fakeEmbeddingStore is an in-memory embeddings.Store
type fakeEmbeddingStore struct {
	nextID  int
	records []*embeddings.Record
}

func (s *fakeEmbeddingStore) Save(_ context.Context, recipeID int64, vector []float64) (*embeddings.Record, error) {
	s.nextID++
	record := &embeddings.Record{
		ID:        fmt.Sprintf("rec-%d", s.nextID),
		RecipeID:  recipeID,
		Embedding: vector,
		CreatedAt: time.Now(),
	}
	s.records = append(s.records, record)
	return record, nil
}

func (s *fakeEmbeddingStore) FindAll(_ context.Context) ([]*embeddings.Record, error) {
	return append([]*embeddings.Record(nil), s.records...), nil
}

func (s *fakeEmbeddingStore) FindByRecipeID(_ context.Context, recipeID int64) (*embeddings.Record, error) {
	for _, record := range s.records {
		if record.RecipeID == recipeID {
			return record, nil
		}
	}
	return nil, nil
}

func (s *fakeEmbeddingStore) DeleteForRecipe(_ context.Context, recipeID int64) error {
	if recipeID <= 0 {
		return nil
	}
	for i, record := range s.records {
		if record.RecipeID == recipeID {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *fakeEmbeddingStore) Close() error { return nil }

// fakeImageStore returns deterministic URLs for uploaded images
type fakeImageStore struct {
	nextID    int
	uploads   []string
	deleted   []string
	uploadErr error
}

func (s *fakeImageStore) UploadBase64(_ context.Context, data string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.nextID++
	s.uploads = append(s.uploads, data)
	return fmt.Sprintf("https://img.example.com/%d.jpg", s.nextID), nil
}

func (s *fakeImageStore) Delete(_ context.Context, url string) error {
	s.deleted = append(s.deleted, url)
	return nil
}

// fakeMailer records sent verification codes
type fakeMailer struct {
	sentTo   []string
	sentCode int
	err      error
}

func (m *fakeMailer) SendVerificationCode(_ context.Context, toEmail string, code int) error {
	if m.err != nil {
		return m.err
	}
	m.sentTo = append(m.sentTo, toEmail)
	m.sentCode = code
	return nil
}
