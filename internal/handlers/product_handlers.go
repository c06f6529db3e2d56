package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/01moynul/agritech-golang/internal/middleware"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/01moynul/agritech-golang/internal/repository"
	"github.com/01moynul/agritech-golang/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 500
)

// --- Inputs ---

type ProductInput struct {
	Name        string                 `json:"name" binding:"required"`
	Category    models.ProductCategory `json:"category" binding:"required"`
	Quantity    float64                `json:"quantity"`
	Unit        models.Unit            `json:"unit" binding:"required"`
	Price       float64                `json:"price"`
	Description string                 `json:"description"`
	ImageURL    *string                `json:"image_url"`
}

// validate returns the first rule the listing breaks, or "".
func (in *ProductInput) validate() string {
	switch {
	case in.Quantity <= 0 || in.Price <= 0:
		return "Quantity and price must be positive"
	case utf8.RuneCountInString(in.Name) > maxNameLen:
		return "Name must be under 100 characters"
	case utf8.RuneCountInString(in.Description) > maxDescriptionLen:
		return "Description must be under 500 characters"
	case !in.Category.ValidListing():
		return "Invalid category"
	case !in.Unit.Valid():
		return "Invalid unit"
	}
	return ""
}

func (in *ProductInput) apply(p *models.Product) {
	p.Name = strings.TrimSpace(in.Name)
	p.Description = strings.TrimSpace(in.Description)
	p.Category = in.Category
	p.Quantity = in.Quantity
	p.Unit = in.Unit
	p.Price = in.Price
	p.ImageURL = in.ImageURL
}

// productID reads and checks the :id path parameter.
func productID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID format"})
		return "", false
	}
	return id, true
}

// CreateProduct handles POST /products.
func (h *Handlers) CreateProduct(c *gin.Context) {
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if msg := input.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	p := &models.Product{SellerID: middleware.UserID(c)}
	input.apply(p)
	if err := h.Products.Create(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Product %s listed by %s", p.ID, p.SellerID)
	c.JSON(http.StatusCreated, p)
}

// UploadProductImage handles POST /products/upload-image. The key is built
// from the product name so stored objects stay readable.
func (h *Handlers) UploadProductImage(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	img, err := readImage(fh, productExts)
	if err != nil {
		respondError(c, err)
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = strings.TrimSuffix(img.Filename, "."+img.Ext)
	}
	key := storage.ProductImageKey(middleware.UserID(c), name, img.Ext)
	url, err := h.Storage.Put(c.Request.Context(), key, img.Reader(), img.ContentType)
	if err != nil {
		log.Printf("Failed to upload product image %s: %v", key, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload image to storage"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"image_url": url})
}

// ListProducts handles GET /products.
func (h *Handlers) ListProducts(c *gin.Context) {
	f := models.ProductFilter{
		SellerID: c.Query("seller_id"),
		Query:    strings.TrimSpace(c.Query("q")),
		Category: models.ProductCategory(c.Query("category")),
	}
	if f.Category != "" && !f.Category.ValidListing() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}
	var err error
	if f.Limit, err = queryInt(c, "limit", repository.DefaultProductLimit); err != nil {
		badRequest(c, err)
		return
	}
	if f.Offset, err = queryInt(c, "offset", 0); err != nil {
		badRequest(c, err)
		return
	}

	products, err := h.Products.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

// GetProduct handles GET /products/:id.
func (h *Handlers) GetProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	p, err := h.Products.Get(c.Request.Context(), id)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// UpdateProduct handles PUT /products/:id. Only the seller may edit.
func (h *Handlers) UpdateProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	var input ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if msg := input.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	p, err := h.Products.Get(c.Request.Context(), id)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}
	if p == nil || p.SellerID != middleware.UserID(c) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found or you don't have permission to edit it"})
		return
	}

	input.apply(p)
	err = h.Products.Update(c.Request.Context(), p)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found or you don't have permission to edit it"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProduct handles DELETE /products/:id.
func (h *Handlers) DeleteProduct(c *gin.Context) {
	id, ok := productID(c)
	if !ok {
		return
	}
	err := h.Products.Delete(c.Request.Context(), id, middleware.UserID(c))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found or you don't have permission to delete it"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}
