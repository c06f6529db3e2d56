package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/01moynul/agritech-golang/internal/email"
	"github.com/01moynul/agritech-golang/internal/middleware"
	"github.com/01moynul/agritech-golang/internal/models"
	"github.com/01moynul/agritech-golang/internal/repository"
	"github.com/01moynul/agritech-golang/internal/session"
	"github.com/gin-gonic/gin"
)

// --- Inputs ---

type SignupInput struct {
	Email     string              `json:"email" binding:"required,email"`
	Password  string              `json:"password" binding:"required,min=8"`
	FirstName string              `json:"first_name" binding:"required"`
	LastName  string              `json:"last_name" binding:"required"`
	Mobile    string              `json:"mobile"`
	Category  models.UserCategory `json:"category" binding:"required"`
}

type LoginInput struct {
	Email    string              `json:"email" binding:"required,email"`
	Password string              `json:"password" binding:"required"`
	Category models.UserCategory `json:"category"`
}

type EmailInput struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyCodeInput struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6,numeric"`
}

type ResetPasswordInput struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6,numeric"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

type VerifyOTPInput struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6,numeric"`
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Signup handles POST /signup.
func (h *Handlers) Signup(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input SignupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	if !input.Category.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category"})
		return
	}

	// 2. --- Build the user ---
	user := &models.User{
		Email:     normalizeEmail(input.Email),
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		Category:  input.Category,
	}
	if m := strings.TrimSpace(input.Mobile); m != "" {
		taken, err := h.Users.MobileTaken(c.Request.Context(), m, "")
		if err != nil {
			respondError(c, err)
			return
		}
		if taken {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Mobile number already in use"})
			return
		}
		user.Mobile = &m
	}

	// 3. --- Hash the Password ---
	var password models.Password
	if err := password.Set(input.Password); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	user.PasswordHash = password.Hash

	// 4. --- Save to Database ---
	if err := h.Users.Create(c.Request.Context(), user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		respondError(c, err)
		return
	}

	log.Printf("Signup successful for %s (%s)", user.Email, user.Category)
	c.JSON(http.StatusCreated, gin.H{
		"message": "Welcome aboard, " + user.FirstName + "! Regards from the AgriTech team.",
		"email":   user.Email,
	})
}

// Login handles POST /login. When a category is given the user must belong
// to it.
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	// 1. --- Check credentials ---
	user, err := h.Users.GetByEmail(ctx, normalizeEmail(input.Email))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	ok, err := (&models.Password{Hash: user.PasswordHash}).Matches(input.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// 2. --- Check category ---
	if input.Category != "" && user.Category != input.Category {
		log.Printf("Category mismatch for %s: expected %s, found %s", user.Email, input.Category, user.Category)
		c.JSON(http.StatusForbidden, gin.H{"error": notA(input.Category)})
		return
	}

	// 3. --- Open session ---
	h.startSession(c, user, nil)
}

func notA(cat models.UserCategory) string {
	article := "a"
	if cat == models.UserInvestor || cat == models.UserExpert {
		article = "an"
	}
	return "You are not " + article + " " + string(cat)
}

// startSession creates a session for user and writes the login response.
func (h *Handlers) startSession(c *gin.Context, user *models.User, extra gin.H) {
	sess, err := h.Sessions.Create(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := h.Tokens.GenerateToken(user.ID, sess.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("Login successful for %s, session %s", user.Email, sess.ID)
	resp := gin.H{
		"session_id": sess.ID,
		"token":      token,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
		"email":      user.Email,
		"category":   user.Category,
	}
	for k, v := range extra {
		resp[k] = v
	}
	c.JSON(http.StatusOK, resp)
}

// Logout handles POST /logout and ends the caller's session.
func (h *Handlers) Logout(c *gin.Context) {
	sess := middleware.Session(c)
	if err := h.Sessions.Delete(c.Request.Context(), sess.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// ForgotPassword handles POST /forgot-password.
func (h *Handlers) ForgotPassword(c *gin.Context) {
	var input EmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	addr := normalizeEmail(input.Email)

	// 1. --- User must exist ---
	exists, err := h.Users.EmailExists(ctx, addr)
	if err != nil {
		respondError(c, err)
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Email not found"})
		return
	}

	// 2. --- Issue and send the code ---
	code, err := h.Sessions.IssueCode(ctx, session.PurposeReset, addr)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "Reset code sent to your email"
	if err := email.SendResetCode(ctx, h.Mailer, addr, code); err != nil {
		log.Printf("Failed to send reset code to %s: %v", addr, err)
		msg = "Reset code generated (check server console due to email issue)"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// VerifyCode handles POST /verify-code. The code stays valid for the reset.
func (h *Handlers) VerifyCode(c *gin.Context) {
	var input VerifyCodeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	err := h.Sessions.VerifyCode(c.Request.Context(), session.PurposeReset, normalizeEmail(input.Email), input.Code, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Code verified successfully"})
}

// ResetPassword handles POST /reset-password. Every session of the user is
// revoked afterwards.
func (h *Handlers) ResetPassword(c *gin.Context) {
	var input ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	addr := normalizeEmail(input.Email)

	// 1. --- Consume the code ---
	if err := h.Sessions.VerifyCode(ctx, session.PurposeReset, addr, input.Code, true); err != nil {
		respondError(c, err)
		return
	}

	// 2. --- Update the password ---
	user, err := h.Users.GetByEmail(ctx, addr)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	var password models.Password
	if err := password.Set(input.NewPassword); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	if err := h.Users.UpdatePassword(ctx, user.ID, password.Hash); err != nil {
		respondError(c, err)
		return
	}

	// 3. --- Revoke sessions ---
	if err := h.Sessions.RevokeAll(ctx, user.ID); err != nil {
		respondError(c, err)
		return
	}
	log.Printf("Password reset for %s, all sessions revoked", addr)
	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

// LoginOTP handles POST /login-otp. Only Investors may log in by code.
func (h *Handlers) LoginOTP(c *gin.Context) {
	var input EmailInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	addr := normalizeEmail(input.Email)

	user, err := h.Users.GetByEmail(ctx, addr)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Email not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	if user.Category != models.UserInvestor {
		c.JSON(http.StatusForbidden, gin.H{"error": notA(models.UserInvestor)})
		return
	}

	code, err := h.Sessions.IssueCode(ctx, session.PurposeLogin, addr)
	if err != nil {
		respondError(c, err)
		return
	}
	msg := "OTP sent to your email"
	if err := email.SendLoginCode(ctx, h.Mailer, addr, code); err != nil {
		log.Printf("Failed to send OTP to %s: %v", addr, err)
		msg = "OTP generated (check console)"
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// VerifyOTP handles POST /verify-otp and opens a session on success.
func (h *Handlers) VerifyOTP(c *gin.Context) {
	var input VerifyOTPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()
	addr := normalizeEmail(input.Email)

	if err := h.Sessions.VerifyCode(ctx, session.PurposeLogin, addr, input.OTP, true); err != nil {
		respondError(c, err)
		return
	}
	user, err := h.Users.GetByEmail(ctx, addr)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	// Buyers finish their profile after the first code login.
	profile, err := h.Profiles.GetBuyerProfile(ctx, user.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}
	complete := profile != nil && profile.FullName != "" && profile.Location != ""
	h.startSession(c, user, gin.H{"profile_complete": complete})
}
