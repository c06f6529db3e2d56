package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/01moynul/agritech-golang/internal/middleware"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/01moynul/agritech-golang/internal/repository"
	"github.com/01moynul/agritech-golang/internal/storage"
	"github.com/gin-gonic/gin"
)

type UpdateUserInput struct {
	FirstName  string  `json:"first_name" binding:"required"`
	LastName   string  `json:"last_name" binding:"required"`
	Mobile     *string `json:"mobile"`
	Address    string  `json:"address"`
	FarmSize   string  `json:"farm_size"`
	MainCrops  string  `json:"main_crops"`
	Experience string  `json:"experience"`
}

type CompleteProfileInput struct {
	FullName    string `json:"full_name"`
	Location    string `json:"location"`
	Email       string `json:"email" binding:"required"`
	PhoneNumber string `json:"phone_number"`
}

// UserResponse is a user merged with their farm profile.
type UserResponse struct {
	*models.User
	Address    string  `json:"address"`
	FarmSize   string  `json:"farm_size"`
	MainCrops  string  `json:"main_crops"`
	Experience string  `json:"experience"`
	PhotoURL   *string `json:"photo_url"`
}

func (h *Handlers) loadUserResponse(c *gin.Context, userID string) (*UserResponse, error) {
	ctx := c.Request.Context()
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := &UserResponse{User: user}
	details, err := h.Profiles.GetFarmerDetails(ctx, userID)
	switch {
	case errors.Is(err, repository.ErrNotFound):
	case err != nil:
		return nil, err
	default:
		resp.Address = details.Address
		resp.FarmSize = details.FarmSize
		resp.MainCrops = details.MainCrops
		resp.Experience = details.Experience
		resp.PhotoURL = details.PhotoURL
	}
	return resp, nil
}

// GetUser handles GET /user.
func (h *Handlers) GetUser(c *gin.Context) {
	resp, err := h.loadUserResponse(c, middleware.UserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User profile not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateUser handles PUT /user. The mobile number must be unique.
func (h *Handlers) UpdateUser(c *gin.Context) {
	userID := middleware.UserID(c)
	ctx := c.Request.Context()

	// 1. --- Bind & Validate JSON ---
	var input UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	// 2. --- Mobile uniqueness ---
	var mobile *string
	if input.Mobile != nil {
		if m := strings.TrimSpace(*input.Mobile); m != "" {
			taken, err := h.Users.MobileTaken(ctx, m, userID)
			if err != nil {
				respondError(c, err)
				return
			}
			if taken {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Mobile number already in use"})
				return
			}
			mobile = &m
		}
	}

	// 3. --- Save user and farm details ---
	user, err := h.Users.GetByID(ctx, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	user.FirstName = strings.TrimSpace(input.FirstName)
	user.LastName = strings.TrimSpace(input.LastName)
	user.Mobile = mobile
	if err := h.Users.Update(ctx, user); err != nil {
		respondError(c, err)
		return
	}
	err = h.Profiles.UpsertFarmerDetails(ctx, &models.FarmerDetails{
		UserID:     userID,
		Address:    input.Address,
		FarmSize:   input.FarmSize,
		MainCrops:  input.MainCrops,
		Experience: input.Experience,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	// 4. --- Return the fresh profile ---
	resp, err := h.loadUserResponse(c, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Profile updated for %s", user.Email)
	c.JSON(http.StatusOK, resp)
}

// UploadPhoto handles POST /user/photo. The previous photo is removed once
// the new one is saved.
func (h *Handlers) UploadPhoto(c *gin.Context) {
	userID := middleware.UserID(c)
	ctx := c.Request.Context()

	// 1. Get the file from the request
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	img, err := readImage(fh, photoExts)
	if err != nil {
		respondError(c, err)
		return
	}

	// 2. Remember the old photo
	var oldURL *string
	details, err := h.Profiles.GetFarmerDetails(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}
	if details != nil {
		oldURL = details.PhotoURL
	}

	// 3. Store the new one
	url, err := h.Storage.Put(ctx, storage.ProfilePhotoKey(userID, img.Ext), img.Reader(), img.ContentType)
	if err != nil {
		log.Printf("Failed to upload photo for %s: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload photo"})
		return
	}
	if err := h.Profiles.SetFarmerPhoto(ctx, userID, &url); err != nil {
		respondError(c, err)
		return
	}

	// 4. Best-effort cleanup
	if oldURL != nil {
		h.deleteObject(c, *oldURL)
	}
	c.JSON(http.StatusOK, gin.H{"photo_url": url})
}

// DeletePhoto handles DELETE /user/photo.
func (h *Handlers) DeletePhoto(c *gin.Context) {
	userID := middleware.UserID(c)
	ctx := c.Request.Context()

	details, err := h.Profiles.GetFarmerDetails(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && details.PhotoURL == nil) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No profile photo found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.Profiles.SetFarmerPhoto(ctx, userID, nil); err != nil {
		respondError(c, err)
		return
	}
	h.deleteObject(c, *details.PhotoURL)
	c.JSON(http.StatusOK, gin.H{"message": "Profile photo deleted successfully"})
}

func (h *Handlers) deleteObject(c *gin.Context, url string) {
	key, ok := h.Storage.KeyFromURL(url)
	if !ok {
		log.Printf("WARNING: %s is not a stored object, leaving it", url)
		return
	}
	if err := h.Storage.Delete(c.Request.Context(), key); err != nil {
		log.Printf("WARNING: failed to delete object %s: %v", key, err)
	}
}

// CompleteProfile handles POST /complete-profile for code-login users.
func (h *Handlers) CompleteProfile(c *gin.Context) {
	sess := middleware.Session(c)

	var input CompleteProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	fullName := strings.TrimSpace(input.FullName)
	location := strings.TrimSpace(input.Location)
	switch {
	case len([]rune(fullName)) < 2:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Full name is required and must be at least 2 characters"})
		return
	case len([]rune(location)) < 2:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Location is required and must be at least 2 characters"})
		return
	case normalizeEmail(input.Email) != sess.Email:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email does not match session"})
		return
	}

	profile := &models.BuyerProfile{
		UserID:      sess.UserID,
		FullName:    fullName,
		PhoneNumber: strings.TrimSpace(input.PhoneNumber),
		Location:    location,
	}
	if err := h.Profiles.UpsertBuyerProfile(c.Request.Context(), profile); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Profile completed successfully",
		"full_name":    profile.FullName,
		"phone_number": profile.PhoneNumber,
		"email":        sess.Email,
		"location":     profile.Location,
	})
}
