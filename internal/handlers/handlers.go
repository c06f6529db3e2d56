package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/01moynul/agritech-golang/internal/apperr"
	"github.com/01moynul/agritech-golang/internal/auth"
	"github.com/01moynul/agritech-golang/internal/content"
	"github.com/01moynul/agritech-golang/internal/diagnosis"
	"github.com/01moynul/agritech-golang/internal/email"
	"github.com/01moynul/agritech-golang/internal/orders"
	"github.com/01moynul/agritech-golang/internal/repository"
	"github.com/01moynul/agritech-golang/internal/session"
	"github.com/01moynul/agritech-golang/internal/storage"
	"github.com/gin-gonic/gin"
)

// EventsSource is implemented by *content.EventsService.
type EventsSource interface {
	Events(ctx context.Context) []content.Event
}

// Assistant is implemented by *ai.Service.
type Assistant interface {
	Chat(ctx context.Context, userMessage, userCategory string) (string, int, error)
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	DB         *sql.DB // Primary Read/Write connection
	DBReadOnly *sql.DB // Read-Only connection

	Users         *repository.UserRepo
	Profiles      *repository.ProfileRepo
	Products      *repository.ProductRepo
	OrderRepo     *repository.OrderRepo
	Wanted        *repository.WantedRepo
	Notifications *repository.NotificationRepo
	Scans         *repository.ScanRepo

	Orders    *orders.Service
	Sessions  *session.Store
	Tokens    *auth.TokenIssuer
	Mailer    email.Sender
	Storage   storage.ObjectStore
	Diagnosis *diagnosis.Service
	Events    EventsSource
	Assistant Assistant

	Now func() time.Time
}

// New wires the repositories over db. Services are set by the caller.
func New(db, dbReadOnly *sql.DB) *Handlers {
	return &Handlers{
		DB:            db,
		DBReadOnly:    dbReadOnly,
		Users:         &repository.UserRepo{DB: db},
		Profiles:      &repository.ProfileRepo{DB: db},
		Products:      &repository.ProductRepo{DB: db},
		OrderRepo:     &repository.OrderRepo{DB: db},
		Wanted:        &repository.WantedRepo{DB: db},
		Notifications: &repository.NotificationRepo{DB: db},
		Scans:         &repository.ScanRepo{DB: db},
		Now:           time.Now,
	}
}

// respondError maps err to a status code and writes {"error": ...}.
// Internal errors are logged and hidden from the caller.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	case errors.Is(err, repository.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "Already exists"})
		return
	}

	status := http.StatusInternalServerError
	switch apperr.KindOf(err) {
	case apperr.KindInvalid:
		status = http.StatusBadRequest
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindUnavailable:
		status = http.StatusServiceUnavailable
		log.Printf("Upstream unavailable on %s %s: %v", c.Request.Method, c.FullPath(), err)
	default:
		log.Printf("Internal error on %s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

// badRequest answers binding failures.
func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// Ping is the liveness check.
func (h *Handlers) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong!"})
}
