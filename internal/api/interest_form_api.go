package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/forkfeed/forkfeed/pkg/services"
)

// InterestFormAPI exposes the first-login profile questionnaire
type InterestFormAPI struct {
	forms *services.InterestFormService
}

// NewInterestFormAPI creates an interest-form API handler
func NewInterestFormAPI(forms *services.InterestFormService) *InterestFormAPI {
	return &InterestFormAPI{forms: forms}
}

// RegisterRoutes registers the questionnaire endpoints on an authenticated group
func (a *InterestFormAPI) RegisterRoutes(group *gin.RouterGroup) {
	group.POST("/interest-form", a.submit)
	group.GET("/interest-form", a.get)
	group.PUT("/interest-form", a.update)
	group.GET("/interest-form/completed", a.completed)
}

type interestFormRequest struct {
	Name        string  `json:"name" binding:"required"`
	Surname     string  `json:"surname"`
	DateOfBirth string  `json:"dateOfBirth" binding:"required"`
	Height      int     `json:"height" binding:"required,gt=0"`
	Weight      float64 `json:"weight" binding:"required,gt=0"`
	Gender      string  `json:"gender"`
	PhotoBase64 string  `json:"photoBase64"`
}

func (r interestFormRequest) toInput(dob time.Time) services.InterestFormInput {
	return services.InterestFormInput{
		Name:        r.Name,
		Surname:     r.Surname,
		DateOfBirth: dob,
		Height:      r.Height,
		Weight:      r.Weight,
		Gender:      r.Gender,
		PhotoBase64: r.PhotoBase64,
	}
}

func (a *InterestFormAPI) submit(c *gin.Context) {
	var req interestFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dob, err := time.Parse(dayFormat, req.DateOfBirth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dateOfBirth, expected YYYY-MM-DD"})
		return
	}

	form, err := a.forms.Submit(c.Request.Context(), currentUserID(c), req.toInput(dob))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, form)
}

func (a *InterestFormAPI) get(c *gin.Context) {
	form, err := a.forms.Get(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

func (a *InterestFormAPI) update(c *gin.Context) {
	var req interestFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	dob, err := time.Parse(dayFormat, req.DateOfBirth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dateOfBirth, expected YYYY-MM-DD"})
		return
	}

	form, err := a.forms.Update(c.Request.Context(), currentUserID(c), req.toInput(dob))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, form)
}

func (a *InterestFormAPI) completed(c *gin.Context) {
	done, err := a.forms.Completed(c.Request.Context(), currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": done})
}
