// Package fatsecret wraps the FatSecret platform API behind a typed
// nutrition lookup. Responses are validated at this boundary; nothing
// loosely typed crosses into the services.
package fatsecret

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sony/gobreaker"

	"github.com/forkfeed/forkfeed/pkg/observability"
)

const (
	defaultTokenURL = "https://oauth.fatsecret.com/connect/token"
	defaultAPIURL   = "https://platform.fatsecret.com/rest/server.api"
)

// ErrNoFoodFound is returned when the search yields no match
var ErrNoFoodFound = errors.New("no food data returned")

// Nutrition is the per-serving nutrient profile of a food. BaseWeightGrams
// is the serving weight the values are expressed against (usually 100g).
type Nutrition struct {
	Calories        int
	BaseWeightGrams float64
	Carbs           float64
	Fat             float64
	Protein         float64
	VitaminA        float64
	VitaminC        float64
	Sodium          float64
	SaturatedFat    float64
	Potassium       float64
	Cholesterol     float64
	Calcium         float64
	Iron            float64
}

// Config holds FatSecret API credentials and endpoints
type Config struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	TokenURL     string        `mapstructure:"token_url"`
	APIURL       string        `mapstructure:"api_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	CacheSize    int           `mapstructure:"cache_size"`
}

// Client looks up nutrition data. Lookups go through a circuit breaker so
// a flapping upstream degrades recipe creation (zero calories) instead of
// hammering the API, and successful lookups are memoized in an LRU cache
// keyed by the normalized ingredient name.
type Client struct {
	config     Config
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	cache      *lru.Cache[string, Nutrition]
	logger     observability.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a FatSecret client
func NewClient(config Config, logger observability.Logger) (*Client, error) {
	if config.ClientID == "" || config.ClientSecret == "" {
		return nil, errors.New("FatSecret client id and secret are required")
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultTokenURL
	}
	if config.APIURL == "" {
		config.APIURL = defaultAPIURL
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.CacheSize == 0 {
		config.CacheSize = 512
	}
	if logger == nil {
		logger = observability.NewNoopLogger()
	}

	cache, err := lru.New[string, Nutrition](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create nutrition cache: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "fatsecret",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		breaker:    breaker,
		cache:      cache,
		logger:     logger,
	}, nil
}

// tokenResponse is the OAuth2 client-credentials grant response
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// searchResponse is the envelope of the foods.search method
type searchResponse struct {
	Foods struct {
		Food []searchFood `json:"food"`
	} `json:"foods"`
}

type searchFood struct {
	FoodID string `json:"food_id"`
	Name   string `json:"food_name"`
}

// foodResponse is the envelope of the food.get.v2 method. FatSecret
// returns all numbers as strings.
type foodResponse struct {
	Food struct {
		Servings struct {
			Serving []serving `json:"serving"`
		} `json:"servings"`
	} `json:"food"`
}

type serving struct {
	MetricServingAmount string `json:"metric_serving_amount"`
	MetricServingUnit   string `json:"metric_serving_unit"`
	Calories            string `json:"calories"`
	Carbohydrate        string `json:"carbohydrate"`
	Fat                 string `json:"fat"`
	Protein             string `json:"protein"`
	VitaminA            string `json:"vitamin_a"`
	VitaminC            string `json:"vitamin_c"`
	Sodium              string `json:"sodium"`
	SaturatedFat        string `json:"saturated_fat"`
	Potassium           string `json:"potassium"`
	Cholesterol         string `json:"cholesterol"`
	Calcium             string `json:"calcium"`
	Iron                string `json:"iron"`
}

// GetFoodNutrition resolves an ingredient name to its nutrient profile
func (c *Client) GetFoodNutrition(ctx context.Context, name string) (Nutrition, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.lookup(ctx, key)
	})
	if err != nil {
		return Nutrition{}, err
	}

	nutrition := result.(Nutrition)
	c.cache.Add(key, nutrition)
	return nutrition, nil
}

func (c *Client) lookup(ctx context.Context, name string) (Nutrition, error) {
	token, err := c.getAccessToken(ctx)
	if err != nil {
		return Nutrition{}, err
	}

	foodID, err := c.searchFood(ctx, token, name)
	if err != nil {
		return Nutrition{}, err
	}

	return c.getFood(ctx, token, foodID)
}

func (c *Client) getAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	body := strings.NewReader("grant_type=client_credentials&scope=basic")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.TokenURL, body)
	if err != nil {
		return "", fmt.Errorf("failed to build token request: %w", err)
	}
	credentials := base64.StdEncoding.EncodeToString(
		[]byte(c.config.ClientID + ":" + c.config.ClientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var parsed tokenResponse
	if err := c.do(req, &parsed); err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}
	if parsed.AccessToken == "" {
		return "", errors.New("token response contained no access token")
	}

	c.accessToken = parsed.AccessToken
	// Refresh one minute before actual expiry
	c.tokenExpiry = time.Now().Add(time.Duration(parsed.ExpiresIn-60) * time.Second)
	return c.accessToken, nil
}

func (c *Client) searchFood(ctx context.Context, token, name string) (string, error) {
	params := url.Values{}
	params.Set("method", "foods.search")
	params.Set("search_expression", name)
	params.Set("format", "json")
	params.Set("max_results", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var parsed searchResponse
	if err := c.do(req, &parsed); err != nil {
		return "", fmt.Errorf("food search failed: %w", err)
	}
	if len(parsed.Foods.Food) == 0 || parsed.Foods.Food[0].FoodID == "" {
		return "", ErrNoFoodFound
	}
	return parsed.Foods.Food[0].FoodID, nil
}

func (c *Client) getFood(ctx context.Context, token, foodID string) (Nutrition, error) {
	params := url.Values{}
	params.Set("method", "food.get.v2")
	params.Set("food_id", foodID)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.config.APIURL+"?"+params.Encode(), nil)
	if err != nil {
		return Nutrition{}, fmt.Errorf("failed to build food request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	var parsed foodResponse
	if err := c.do(req, &parsed); err != nil {
		return Nutrition{}, fmt.Errorf("food lookup failed: %w", err)
	}
	servings := parsed.Food.Servings.Serving
	if len(servings) == 0 {
		return Nutrition{}, ErrNoFoodFound
	}

	// Prefer a gram-based serving so scaling by weight is meaningful
	chosen := servings[0]
	for _, s := range servings {
		if s.MetricServingUnit == "g" {
			chosen = s
			break
		}
	}

	nutrition := Nutrition{
		Calories:        int(parseNumber(chosen.Calories)),
		BaseWeightGrams: parseNumber(chosen.MetricServingAmount),
		Carbs:           parseNumber(chosen.Carbohydrate),
		Fat:             parseNumber(chosen.Fat),
		Protein:         parseNumber(chosen.Protein),
		VitaminA:        parseNumber(chosen.VitaminA),
		VitaminC:        parseNumber(chosen.VitaminC),
		Sodium:          parseNumber(chosen.Sodium),
		SaturatedFat:    parseNumber(chosen.SaturatedFat),
		Potassium:       parseNumber(chosen.Potassium),
		Cholesterol:     parseNumber(chosen.Cholesterol),
		Calcium:         parseNumber(chosen.Calcium),
		Iron:            parseNumber(chosen.Iron),
	}
	if nutrition.BaseWeightGrams == 0 {
		nutrition.BaseWeightGrams = 100
	}
	return nutrition, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func parseNumber(s string) float64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return n
}
