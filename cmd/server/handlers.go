package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/glucorisk/internal/assessment"
	"github.com/Skufu/glucorisk/internal/risk"
)

type handler struct {
	service *assessment.Service
	history History
	model   ModelInfo
}

type assessmentResponse struct {
	assessment.Result
	Feedback string             `json:"feedback"`
	Verdict  string             `json:"verdict"`
	Notice   string             `json:"notice,omitempty"`
	Features map[string]float64 `json:"features"`
}

type bmiRequest struct {
	HeightCM float64 `json:"heightCm"`
	WeightKG float64 `json:"weightKg"`
}

func (h *handler) createAssessment(c *gin.Context) {
	var obs risk.Observation
	if err := c.ShouldBindJSON(&obs); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	result, err := h.service.Score(c.Request.Context(), obs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, assessmentResponse{
		Result:   result,
		Feedback: result.Feedback(),
		Verdict:  result.Verdict(),
		Notice:   result.Notice(),
		Features: result.Features.Map(),
	})
}

func (h *handler) recentAssessments(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "assessment history is disabled"})
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	results, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		c.Error(err) //nolint:errcheck
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load assessments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assessments": results})
}

func (h *handler) deriveBMI(c *gin.Context) {
	var req bmiRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	bmi, ok, err := risk.DeriveValidBMI(req.HeightCM, req.WeightKG)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusOK, gin.H{"derived": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"derived": true, "bmi": bmi})
}

func (h *handler) referenceAverages(c *gin.Context) {
	table := h.service.Assembler().Table()

	raw := c.Query("age")
	if raw == "" {
		if bucketed, ok := table.(*risk.AgeBucketedTable); ok {
			c.JSON(http.StatusOK, gin.H{"policy": table.Policy(), "buckets": bucketed.Buckets()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"policy": table.Policy(), "averages": table.Averages(0)})
		return
	}

	age, err := strconv.Atoi(raw)
	if err != nil || age <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation_failed",
			"details": []risk.FieldError{{Field: "age", Message: "must be a positive integer"}},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"policy": table.Policy(), "age": age, "averages": table.Averages(age)})
}

func (h *handler) modelInfo(c *gin.Context) {
	c.JSON(http.StatusOK, h.model)
}

func respondError(c *gin.Context, err error) {
	var invalid *risk.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":   "validation_failed",
			"details": invalid.Problems,
		})
	case errors.Is(err, assessment.ErrPredictionFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
	default:
		c.Error(err) //nolint:errcheck
		c.JSON(http.StatusInternalServerError, gin.H{"error": "prediction failed"})
	}
}
