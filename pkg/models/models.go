// Package models contains the domain types shared across the API, service
// and repository layers.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// User represents a registered account
type User struct {
	ID           int64     `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Name         string    `json:"name" db:"name"`
	Surname      string    `json:"surname" db:"surname"`
	ProfilePhoto string    `json:"profilePhoto" db:"profile_photo"`
	Role         string    `json:"role" db:"role"`
	RefreshToken string    `json:"-" db:"refresh_token"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// InterestForm is the one-time profile questionnaire filled in after the
// first login. One form per user.
type InterestForm struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"userId" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Surname     string    `json:"surname" db:"surname"`
	DateOfBirth time.Time `json:"dateOfBirth" db:"date_of_birth"`
	Height      int       `json:"height" db:"height"`
	Weight      float64   `json:"weight" db:"weight"`
	Gender      string    `json:"gender" db:"gender"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Measurement is the unit an ingredient quantity is expressed in
type Measurement string

// Supported measurement units
const (
	MeasurementGram       Measurement = "GRAM"
	MeasurementMilliliter Measurement = "ML"
	MeasurementTeaspoon   Measurement = "TEASPOON"
	MeasurementTablespoon Measurement = "TABLESPOON"
	MeasurementCup        Measurement = "CUP"
)

var gramEquivalents = map[Measurement]float64{
	MeasurementGram:       1.0,
	MeasurementMilliliter: 1.0,
	MeasurementTeaspoon:   5.0,
	MeasurementTablespoon: 10.0,
	MeasurementCup:        200.0,
}

// Grams converts an amount in this unit to grams. Unknown units fall back
// to grams so a malformed record degrades instead of failing.
func (m Measurement) Grams(amount float64) float64 {
	eq, ok := gramEquivalents[m]
	if !ok {
		eq = 1.0
	}
	return amount * eq
}

// Ingredient is a single recipe ingredient with its quantity
type Ingredient struct {
	Name     string      `json:"name"`
	Quantity float64     `json:"quantity"`
	Unit     Measurement `json:"unit"`
}

// IngredientList is stored as a JSONB column
type IngredientList []Ingredient

// Value implements driver.Valuer
func (l IngredientList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]Ingredient{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *IngredientList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// StringList is stored as a JSONB column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner
func (l *StringList) Scan(src interface{}) error {
	return scanJSON(src, l)
}

// NutritionData holds the macro and micronutrient totals for a recipe
type NutritionData struct {
	Carbs        float64 `json:"carbs"`
	Fat          float64 `json:"fat"`
	Protein      float64 `json:"protein"`
	VitaminA     float64 `json:"vitaminA"`
	VitaminC     float64 `json:"vitaminC"`
	Sodium       float64 `json:"sodium"`
	SaturatedFat float64 `json:"saturatedFat"`
	Potassium    float64 `json:"potassium"`
	Cholesterol  float64 `json:"cholesterol"`
	Calcium      float64 `json:"calcium"`
	Iron         float64 `json:"iron"`
}

// Value implements driver.Valuer
func (n NutritionData) Value() (driver.Value, error) {
	return json.Marshal(n)
}

// Scan implements sql.Scanner
func (n *NutritionData) Scan(src interface{}) error {
	return scanJSON(src, n)
}

// Recipe represents a user-created recipe
type Recipe struct {
	ID            int64          `json:"id" db:"id"`
	UserID        int64          `json:"userId" db:"user_id"`
	Title         string         `json:"title" db:"title"`
	Instructions  StringList     `json:"instructions" db:"instructions"`
	Ingredients   IngredientList `json:"ingredients" db:"ingredients"`
	Tag           string         `json:"tag" db:"tag"`
	Type          string         `json:"type" db:"type"`
	Photo         string         `json:"photo" db:"photo"`
	Price         float64        `json:"price" db:"price"`
	TotalCalories int            `json:"totalCalories" db:"total_calories"`
	Nutrition     NutritionData  `json:"nutrition" db:"nutrition"`
	CreatedAt     time.Time      `json:"createdAt" db:"created_at"`
}

// IngredientNames returns the ingredient names in order
func (r *Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}

// FeedType discriminates the payload of a feed entry
type FeedType string

// Feed entry types
const (
	FeedTypeText         FeedType = "TEXT"
	FeedTypeImageAndText FeedType = "IMAGE_AND_TEXT"
	FeedTypeRecipe       FeedType = "RECIPE"
)

// ParseFeedType validates a raw feed type string
func ParseFeedType(s string) (FeedType, error) {
	switch FeedType(s) {
	case FeedTypeText, FeedTypeImageAndText, FeedTypeRecipe:
		return FeedType(s), nil
	}
	return "", fmt.Errorf("invalid feed type %q", s)
}

// Feed is a single entry in the social feed
type Feed struct {
	ID           int64     `json:"id" db:"id"`
	UserID       int64     `json:"userId" db:"user_id"`
	Type         FeedType  `json:"type" db:"type"`
	Text         string    `json:"text" db:"text"`
	Image        string    `json:"image" db:"image"`
	RecipeID     *int64    `json:"recipeId,omitempty" db:"recipe_id"`
	LikeCount    int       `json:"likeCount" db:"like_count"`
	CommentCount int       `json:"commentCount" db:"comment_count"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Like marks a user's like on a feed entry
type Like struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	FeedID    int64     `json:"feedId" db:"feed_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Comment is a user comment on a feed entry
type Comment struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	FeedID    int64     `json:"feedId" db:"feed_id"`
	Message   string    `json:"message" db:"message"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// SavedRecipe is a bookmark with the title and photo denormalized at save
// time, matching what the saved-recipes screen renders.
type SavedRecipe struct {
	ID        int64     `json:"id" db:"id"`
	UserID    int64     `json:"userId" db:"user_id"`
	RecipeID  int64     `json:"recipeId" db:"recipe_id"`
	Title     string    `json:"title" db:"title"`
	Photo     string    `json:"photo" db:"photo"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// EasinessRate is a per-user difficulty rating for a recipe
type EasinessRate struct {
	ID       int64 `json:"id" db:"id"`
	UserID   int64 `json:"userId" db:"user_id"`
	RecipeID int64 `json:"recipeId" db:"recipe_id"`
	Rate     int   `json:"rate" db:"rate"`
}

// CalorieEntry records that a user ate a portion of a recipe on a given day
type CalorieEntry struct {
	ID       int64     `json:"id" db:"id"`
	UserID   int64     `json:"userId" db:"user_id"`
	RecipeID int64     `json:"recipeId" db:"recipe_id"`
	EatenOn  time.Time `json:"eatenOn" db:"eaten_on"`
	Portion  float64   `json:"portion" db:"portion"`
}

func scanJSON(src, dst interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	}
	return errors.New("unsupported source type for JSON column")
}
