package handlers

import (
	"net/http"
	"strings"

	"github.com/01moynul/agritech-golang/internal/apperr"
	"github.com/01moynul/agritech-golang/internal/diagnosis"
	"github.com/01moynul/agritech-golang/internal/middleware"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/gin-gonic/gin"
)

type PlantNameInput struct {
	PlantName   string `json:"plant_name"`
	DiseaseName string `json:"disease_name"`
}

type FeedbackInput struct {
	Rating  int    `json:"rating" binding:"gte=0,lte=5"`
	Comment string `json:"comment" binding:"max=1000"`
}

// DetectDisease handles POST /detect-disease with up to five "images".
func (h *Handlers) DetectDisease(c *gin.Context) {
	// 1. --- Read the files ---
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Expected multipart form with images"})
		return
	}
	files := form.File["images"]
	if len(files) > diagnosis.MaxImages {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Maximum 5 images allowed"})
		return
	}

	uploads := make([]diagnosis.Upload, 0, len(files))
	var readErrs []string
	for _, fh := range files {
		data, err := readFile(fh)
		if err != nil {
			readErrs = append(readErrs, apperr.Message(err))
			continue
		}
		uploads = append(uploads, diagnosis.Upload{Filename: fh.Filename, Data: data})
	}
	if len(uploads) == 0 && len(readErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid results", "errors": readErrs})
		return
	}

	// 2. --- Diagnose ---
	report, err := h.Diagnosis.Detect(c.Request.Context(), middleware.UserID(c), uploads)
	if report != nil && len(readErrs) > 0 {
		report.Errors = append(readErrs, report.Errors...)
	}
	if err != nil {
		if report != nil && apperr.KindOf(err) == apperr.KindInvalid {
			c.JSON(http.StatusBadRequest, gin.H{"error": apperr.Message(err), "errors": report.Errors})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// UpdatePlantName handles POST /update-plant-name and returns fresh advice.
func (h *Handlers) UpdatePlantName(c *gin.Context) {
	var input PlantNameInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	advice, err := h.Diagnosis.Prevention(c.Request.Context(), input.PlantName, input.DiseaseName)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"prevention": advice})
}

// SubmitFeedback handles POST /feedback.
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	var input FeedbackInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	f := &models.Feedback{
		UserID:  middleware.UserID(c),
		Rating:  input.Rating,
		Comment: strings.TrimSpace(input.Comment),
	}
	if err := h.Scans.SaveFeedback(c.Request.Context(), f); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback submitted successfully"})
}

// ListScans handles GET /scans, the caller's diagnosis history.
func (h *Handlers) ListScans(c *gin.Context) {
	scans, err := h.Scans.ListScans(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, scans)
}
