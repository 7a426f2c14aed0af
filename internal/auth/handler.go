package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Account constraints. The password ceiling is bcrypt's input limit.
const (
	minUsernameLen = 3
	maxUsernameLen = 30
	minPasswordLen = 8
	maxPasswordLen = 72
)

// Handler serves the account endpoints: registration, password login,
// password rotation and logout. Rotating the password or logging out bumps
// the account's token version, which invalidates every token issued before.
type Handler struct {
	Repo   *Repo
	Tokens TokenService
}

func NewHandler(repo *Repo, tokens TokenService) *Handler {
	return &Handler{Repo: repo, Tokens: tokens}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
	rg.POST("/change-password", AuthMiddleware(h.Tokens, h.Repo), h.changePassword)
	rg.POST("/logout", AuthMiddleware(h.Tokens, h.Repo), h.logout)
}

type registrationInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (in *registrationInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
}

// validate returns a client-facing message, or "" when the input is usable.
func (in registrationInput) validate() string {
	switch {
	case len(in.Username) < minUsernameLen || len(in.Username) > maxUsernameLen:
		return fmt.Sprintf("username must be %d-%d chars", minUsernameLen, maxUsernameLen)
	case !strings.Contains(in.Email, "@") || len(in.Email) > 255:
		return "invalid email"
	case len(in.Password) < minPasswordLen || len(in.Password) > maxPasswordLen:
		return fmt.Sprintf("password must be %d-%d chars", minPasswordLen, maxPasswordLen)
	}
	return ""
}

func (h *Handler) register(c *gin.Context) {
	var in registrationInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	in.normalize()
	if msg := in.validate(); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	ctx := c.Request.Context()
	if existing, _ := h.Repo.GetByEmail(ctx, in.Email); existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "email already exists"})
		return
	}
	if existing, _ := h.Repo.GetByUsername(ctx, in.Username); existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
		return
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}

	account := User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := h.Repo.CreateUser(ctx, account); err != nil {
		// a racing duplicate hits the sqlite unique constraint here
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create user failed"})
		return
	}

	// registration doubles as the first login
	h.issueToken(c, http.StatusCreated, &account)
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var in loginInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	// The email field doubles as a username for CLI logins.
	identifier := strings.TrimSpace(in.Email)
	if identifier == "" || in.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password required"})
		return
	}

	account, err := h.Repo.GetByIdentifier(c.Request.Context(), identifier)
	if err != nil || account == nil || !checkPassword(account.PasswordHash, in.Password) {
		// one rejection for both unknown account and wrong password
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	h.issueToken(c, http.StatusOK, account)
}

type rotatePasswordInput struct {
	Old string `json:"old_password"`
	New string `json:"new_password"`
}

func (h *Handler) changePassword(c *gin.Context) {
	var in rotatePasswordInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if in.Old == "" || in.New == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "old and new password required"})
		return
	}
	if len(in.New) < minPasswordLen || len(in.New) > maxPasswordLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("password must be %d-%d chars", minPasswordLen, maxPasswordLen)})
		return
	}

	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	account, err := h.Repo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil || account == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	if !checkPassword(account.PasswordHash, in.Old) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	hash, err := hashPassword(in.New)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "hash failed"})
		return
	}
	if err := h.Repo.UpdatePasswordAndBumpTokenVersion(c.Request.Context(), account.ID, hash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update password failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "password updated"})
}

func (h *Handler) logout(c *gin.Context) {
	claims := MustGetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	if err := h.Repo.BumpTokenVersion(c.Request.Context(), claims.UserID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged out"})
}

// issueToken signs a bearer token for the account and writes the standard
// auth response.
func (h *Handler) issueToken(c *gin.Context, status int, account *User) {
	token, exp, err := h.Tokens.Sign(account)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token failed"})
		return
	}

	c.JSON(status, gin.H{
		"user": gin.H{
			"id":       account.ID,
			"username": account.Username,
			"email":    account.Email,
		},
		"token":      token,
		"expires_at": exp.UTC().Format(time.RFC3339),
	})
}

func hashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func checkPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
