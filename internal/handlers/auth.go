package handlers

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/schizophrenicman/Food-Waste-Management/internal/middleware"
	"github.com/schizophrenicman/Food-Waste-Management/internal/models"
	"github.com/schizophrenicman/Food-Waste-Management/internal/services"
	"github.com/schizophrenicman/Food-Waste-Management/internal/storage"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/logger"
	"github.com/schizophrenicman/Food-Waste-Management/pkg/utils"
)

type AuthHandler struct {
	DB        *gorm.DB
	Audit     *services.AuditService
	Documents *storage.DocumentStore
}

func NewAuthHandler(db *gorm.DB, audit *services.AuditService, documents *storage.DocumentStore) *AuthHandler {
	return &AuthHandler{DB: db, Audit: audit, Documents: documents}
}

type documentPayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int64  `json:"size"`
	Data string `json:"data"` // base64
}

type registerRequest struct {
	Name     string           `json:"name"`
	Email    string           `json:"email"`
	Password string           `json:"password"`
	Phone    string           `json:"phone"`
	Role     models.UserRole  `json:"role"`
	Document *documentPayload `json:"document,omitempty"`
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)

	if req.Name == "" || req.Email == "" || req.Password == "" || req.Phone == "" || req.Role == "" {
		return utils.Error(c, fiber.StatusBadRequest, "All fields are required")
	}
	if req.Role != models.UserRoleDonor && req.Role != models.UserRoleReceiver {
		return utils.Error(c, fiber.StatusBadRequest, "Role must be donor or receiver")
	}
	if !utils.ValidEmail(req.Email) {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid email format")
	}
	if violations := utils.ValidatePassword(req.Password); len(violations) > 0 {
		return utils.Error(c, fiber.StatusBadRequest, strings.Join(violations, ", "))
	}

	var existing models.User
	if err := h.DB.First(&existing, "email = ?", req.Email).Error; err == nil {
		return utils.Error(c, fiber.StatusConflict, "User with this email already exists")
	} else if err != gorm.ErrRecordNotFound {
		return utils.Error(c, fiber.StatusInternalServerError, "failed checking existing user")
	}

	passwordHash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	// Decode the document before any write so a malformed payload fails
	// while the account does not exist yet.
	attachDocument := req.Role == models.UserRoleReceiver && req.Document != nil
	var documentRaw []byte
	if attachDocument {
		documentRaw, err = base64.StdEncoding.DecodeString(req.Document.Data)
		if err != nil {
			return utils.Error(c, fiber.StatusBadRequest, "Invalid document encoding")
		}
	}

	user := models.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: passwordHash,
		Phone:        req.Phone,
		Role:         req.Role,
		Verified:     req.Role == models.UserRoleDonor,
	}

	// User and verification are one logical unit: a storage failure must
	// not leave an account behind that blocks the receiver's retry.
	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		if attachDocument {
			return h.createVerification(c, tx, &user, req.Document, documentRaw)
		}
		return nil
	})
	if txErr != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed creating user")
	}

	logger.Info("user_registered", map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"role":    string(user.Role),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "user.register",
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details: map[string]interface{}{
			"email": user.Email,
			"role":  string(user.Role),
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	message := "Registration successful! You can now login."
	if user.Role == models.UserRoleReceiver {
		message = "Registration successful! Your account is pending verification. You will be able to login once approved."
	}

	return utils.SuccessMessage(c, fiber.StatusCreated, message, fiber.Map{"user": user})
}

func (h *AuthHandler) createVerification(c *fiber.Ctx, tx *gorm.DB, user *models.User, doc *documentPayload, raw []byte) error {
	verification := models.Verification{
		UserEmail:    user.Email,
		UserName:     user.Name,
		UserType:     user.Role,
		Status:       models.VerificationStatusPending,
		DocumentName: doc.Name,
		DocumentType: doc.Type,
		DocumentSize: doc.Size,
	}

	if h.Documents != nil {
		objectName := fmt.Sprintf("verifications/%s/%s", user.ID, doc.Name)
		if err := h.Documents.Upload(c.Context(), objectName, raw, doc.Type); err != nil {
			return err
		}
		verification.DocumentKey = objectName
	} else {
		verification.DocumentData = doc.Data
	}

	return tx.Create(&verification).Error
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authenticate resolves a credential pair to a user without revealing
// whether the email exists.
func (h *AuthHandler) authenticate(c *fiber.Ctx, email, password string) (*models.User, bool) {
	var user models.User
	if err := h.DB.First(&user, "email = ?", email).Error; err != nil {
		logger.Warn("login_failed_user_not_found", map[string]interface{}{
			"email": email,
			"ip":    c.IP(),
		})
		return nil, false
	}

	if !utils.CheckPassword(password, user.PasswordHash) {
		logger.Warn("login_failed_invalid_password", map[string]interface{}{
			"user_id": user.ID.String(),
			"email":   email,
			"ip":      c.IP(),
		})
		return nil, false
	}

	return &user, true
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = normalizeEmail(req.Email)

	if req.Email == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "Email and password are required")
	}

	user, ok := h.authenticate(c, req.Email, req.Password)
	if !ok || user.Role == models.UserRoleAdmin {
		return utils.Error(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	if user.Role == models.UserRoleReceiver && !user.Verified {
		return utils.Error(c, fiber.StatusForbidden, "Your account is pending verification")
	}

	return h.issueToken(c, user, "user.login")
}

// AdminLogin accepts only the moderation account; failures for
// non-admin accounts look identical to a bad credential.
func (h *AuthHandler) AdminLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Email = normalizeEmail(req.Email)

	if req.Email == "" || req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "Email and password are required")
	}

	user, ok := h.authenticate(c, req.Email, req.Password)
	if !ok || user.Role != models.UserRoleAdmin {
		return utils.Error(c, fiber.StatusUnauthorized, "Invalid email or password")
	}

	return h.issueToken(c, user, "admin.login")
}

func (h *AuthHandler) issueToken(c *fiber.Ctx, user *models.User, action string) error {
	logger.Info(action, map[string]interface{}{
		"user_id": user.ID.String(),
		"email":   user.Email,
		"ip":      c.IP(),
	})

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       action,
		ResourceType: "user",
		ResourceID:   &user.ID,
		Details: map[string]interface{}{
			"email": user.Email,
		},
		IPAddress: c.IP(),
		RequestID: getRequestID(c),
	})

	token, err := utils.GenerateToken(user)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed generating token")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{"token": token, "user": user})
}

// Logout exists so clients have a uniform endpoint to report session
// teardown; tokens are stateless, so the discard happens client-side.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user != nil {
		h.Audit.LogAsync(services.AuditEntry{
			UserID:       &user.ID,
			Action:       "user.logout",
			ResourceType: "user",
			ResourceID:   &user.ID,
			IPAddress:    c.IP(),
			RequestID:    getRequestID(c),
		})
	}
	return utils.SuccessMessage(c, fiber.StatusOK, "Logged out successfully!", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}
	return utils.Success(c, fiber.StatusOK, user)
}

type updateMeRequest struct {
	Name     *string `json:"name"`
	Phone    *string `json:"phone"`
	Password *string `json:"password"`
}

func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	currentUser := middleware.GetCurrentUser(c)
	if currentUser == nil {
		return utils.Error(c, fiber.StatusUnauthorized, "unauthorized")
	}

	var req updateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		value := strings.TrimSpace(*req.Name)
		if value == "" {
			return utils.Error(c, fiber.StatusBadRequest, "Name cannot be empty")
		}
		updates["name"] = value
	}
	if req.Phone != nil {
		value := strings.TrimSpace(*req.Phone)
		if value == "" {
			return utils.Error(c, fiber.StatusBadRequest, "Phone cannot be empty")
		}
		updates["phone"] = value
	}
	if req.Password != nil {
		if violations := utils.ValidatePassword(*req.Password); len(violations) > 0 {
			return utils.Error(c, fiber.StatusBadRequest, strings.Join(violations, ", "))
		}
		hash, err := utils.HashPassword(*req.Password)
		if err != nil {
			return utils.Error(c, fiber.StatusInternalServerError, "failed to hash password")
		}
		updates["password_hash"] = hash
	}

	if len(updates) == 0 {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	if err := h.DB.Model(&models.User{}).Where("id = ?", currentUser.ID).Updates(updates).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed updating user")
	}

	var updated models.User
	if err := h.DB.First(&updated, "id = ?", currentUser.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "failed fetching updated user")
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &currentUser.ID,
		Action:       "user.profile_update",
		ResourceType: "user",
		ResourceID:   &currentUser.ID,
		IPAddress:    c.IP(),
		RequestID:    getRequestID(c),
	})

	return utils.Success(c, fiber.StatusOK, updated)
}
