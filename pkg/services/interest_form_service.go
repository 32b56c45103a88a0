package services

import (
	"context"
	"fmt"
	"time"

	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/observability"
	"github.com/forkfeed/forkfeed/pkg/repository"
	"github.com/forkfeed/forkfeed/pkg/storage"
)

// InterestFormInput carries the profile questionnaire fields. PhotoBase64
// is optional and, when present, replaces the user's profile photo.
type InterestFormInput struct {
	Name        string
	Surname     string
	DateOfBirth time.Time
	Height      int
	Weight      float64
	Gender      string
	PhotoBase64 string
}

// InterestFormService manages the one-time profile questionnaire clients
// show after the first login. One form per user; submitting twice is a
// conflict, updates go through Update.
type InterestFormService struct {
	forms  repository.InterestFormRepository
	users  repository.UserRepository
	images storage.ImageStore
	logger observability.Logger
}

// NewInterestFormService creates an interest-form service. images may be
// nil, which disables profile-photo upload.
func NewInterestFormService(
	forms repository.InterestFormRepository,
	users repository.UserRepository,
	images storage.ImageStore,
	logger observability.Logger,
) *InterestFormService {
	if logger == nil {
		logger = observability.NewNoopLogger()
	}
	return &InterestFormService{forms: forms, users: users, images: images, logger: logger}
}

// Submit stores the user's questionnaire. A user who already submitted one
// gets ErrAlreadyExists and must use Update instead.
func (s *InterestFormService) Submit(ctx context.Context, userID int64, input InterestFormInput) (*models.InterestForm, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if user == nil {
		return nil, ErrNotFound
	}

	existing, err := s.forms.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing form: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyExists
	}

	form := &models.InterestForm{
		UserID:      userID,
		Name:        input.Name,
		Surname:     input.Surname,
		DateOfBirth: input.DateOfBirth,
		Height:      input.Height,
		Weight:      input.Weight,
		Gender:      input.Gender,
	}
	if err := s.forms.Create(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to store interest form: %w", err)
	}

	if err := s.updateProfilePhoto(ctx, userID, input.PhotoBase64); err != nil {
		return nil, err
	}

	s.logger.Info("Interest form submitted", map[string]interface{}{
		"user_id": userID,
	})
	return form, nil
}

// Get returns the user's questionnaire
func (s *InterestFormService) Get(ctx context.Context, userID int64) (*models.InterestForm, error) {
	form, err := s.forms.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load interest form: %w", err)
	}
	if form == nil {
		return nil, ErrNotFound
	}
	return form, nil
}

// Completed reports whether the user has submitted the questionnaire.
// Clients use it to decide whether to show the first-login form.
func (s *InterestFormService) Completed(ctx context.Context, userID int64) (bool, error) {
	form, err := s.forms.GetByUser(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check interest form: %w", err)
	}
	return form != nil, nil
}

// Update rewrites an already submitted questionnaire
func (s *InterestFormService) Update(ctx context.Context, userID int64, input InterestFormInput) (*models.InterestForm, error) {
	form, err := s.forms.GetByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load interest form: %w", err)
	}
	if form == nil {
		return nil, ErrNotFound
	}

	form.Name = input.Name
	form.Surname = input.Surname
	form.DateOfBirth = input.DateOfBirth
	form.Height = input.Height
	form.Weight = input.Weight
	form.Gender = input.Gender
	if err := s.forms.Update(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to update interest form: %w", err)
	}

	if err := s.updateProfilePhoto(ctx, userID, input.PhotoBase64); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *InterestFormService) updateProfilePhoto(ctx context.Context, userID int64, photoBase64 string) error {
	if photoBase64 == "" {
		return nil
	}
	if s.images == nil {
		return fmt.Errorf("%w: image uploads are not enabled", ErrInvalidInput)
	}
	url, err := s.images.UploadBase64(ctx, photoBase64)
	if err != nil {
		return fmt.Errorf("failed to upload profile photo: %w", err)
	}
	if err := s.users.UpdateProfilePhoto(ctx, userID, url); err != nil {
		return fmt.Errorf("failed to update profile photo: %w", err)
	}
	return nil
}
