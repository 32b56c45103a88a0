package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/forkfeed/forkfeed/pkg/models"
	"github.com/forkfeed/forkfeed/pkg/services"
)

// RecipeAPI exposes recipe CRUD and easiness rating
type RecipeAPI struct {
	recipes *services.RecipeService
}

// NewRecipeAPI creates a recipe API handler
func NewRecipeAPI(recipes *services.RecipeService) *RecipeAPI {
	return &RecipeAPI{recipes: recipes}
}

// RegisterRoutes registers the recipe endpoints on an authenticated group
func (a *RecipeAPI) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/recipes", a.create)
	group.GET("/recipes", a.listMine)
	group.GET("/recipes/all", a.listAll)
	group.GET("/recipes/:id", a.get)
	group.DELETE("/recipes/:id", a.delete)
	group.POST("/recipes/:id/easiness", a.rateEasiness)
	group.GET("/recipes/:id/easiness", a.easiness)
}

type ingredientRequest struct {
	Name     string  `json:"name" binding:"required"`
	Quantity float64 `json:"quantity" binding:"required,gt=0"`
	Unit     string  `json:"unit" binding:"required,oneof=GRAM ML TEASPOON TABLESPOON CUP"`
}

type createRecipeRequest struct {
	Title        string              `json:"title" binding:"required"`
	Instructions []string            `json:"instructions"`
	Ingredients  []ingredientRequest `json:"ingredients" binding:"required,min=1,dive"`
	Tag          string              `json:"tag"`
	Type         string              `json:"type"`
	Price        float64             `json:"price"`
	Photo        string              `json:"photo"`
}

func (a *RecipeAPI) create(c *gin.Context) {
	var req createRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ingredients := make([]models.Ingredient, 0, len(req.Ingredients))
	for _, ing := range req.Ingredients {
		ingredients = append(ingredients, models.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     models.Measurement(ing.Unit),
		})
	}

	recipe, err := a.recipes.Create(c.Request.Context(), currentUserID(c), services.CreateRecipeInput{
		Title:        req.Title,
		Instructions: req.Instructions,
		Ingredients:  ingredients,
		Tag:          req.Tag,
		Type:         req.Type,
		Price:        req.Price,
		PhotoBase64:  req.Photo,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recipe)
}

func (a *RecipeAPI) get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	recipe, err := a.recipes.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func (a *RecipeAPI) listMine(c *gin.Context) {
	recipes, err := a.recipes.ListByUser(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if recipes == nil {
		recipes = []*models.Recipe{}
	}
	c.JSON(http.StatusOK, recipes)
}

func (a *RecipeAPI) listAll(c *gin.Context) {
	recipes, err := a.recipes.ListAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if recipes == nil {
		recipes = []*models.Recipe{}
	}
	c.JSON(http.StatusOK, recipes)
}

func (a *RecipeAPI) delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	if err := a.recipes.Delete(c.Request.Context(), currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type easinessRequest struct {
	Rate int `json:"rate" binding:"required,min=1,max=5"`
}

func (a *RecipeAPI) rateEasiness(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	var req easinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	avg, err := a.recipes.RateEasiness(c.Request.Context(), currentUserID(c), id, req.Rate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"average": avg})
}

func (a *RecipeAPI) easiness(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		return
	}

	avg, mine, err := a.recipes.Easiness(c.Request.Context(), currentUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"average": avg, "mine": mine})
}

// pathID parses a numeric path parameter, writing the 400 itself on failure
func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, err
	}
	return id, nil
}
