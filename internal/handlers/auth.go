package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/trainerhub/backend/internal/middleware"
	"github.com/trainerhub/backend/internal/models"
	"github.com/trainerhub/backend/internal/services"
	"github.com/trainerhub/backend/pkg/logger"
	"github.com/trainerhub/backend/pkg/utils"
	"gorm.io/gorm"
)

type AuthHandler struct {
	DB    *gorm.DB
	Audit *services.AuditService
}

func NewAuthHandler(db *gorm.DB, audit *services.AuditService) *AuthHandler {
	return &AuthHandler{DB: db, Audit: audit}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login issues a stateless token. Unknown email and wrong password produce
// the identical response so the endpoint never leaks which one it was.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	email := normalizeEmail(req.Email)
	if !isValidEmail(email) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid email")
	}
	if req.Password == "" {
		return utils.Error(c, fiber.StatusBadRequest, "password is required")
	}

	var user models.User
	if err := h.DB.First(&user, "email = ?", email).Error; err != nil {
		if isNotFound(err) {
			return utils.Error(c, fiber.StatusUnauthorized, "invalid email or password")
		}
		logger.Error("login_lookup_failed", err, map[string]interface{}{"ip": c.IP()})
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		return utils.Error(c, fiber.StatusUnauthorized, "invalid email or password")
	}

	token, err := utils.GenerateToken(&user)
	if err != nil {
		logger.Error("token_generation_failed", err, nil)
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "login",
		ResourceType: "user",
		ResourceID:   &user.ID,
		IPAddress:    c.IP(),
	})

	return utils.OK(c, fiber.Map{
		"token": token,
		"user":  userProfile(&user),
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	session := middleware.GetSession(c)

	var user models.User
	if err := h.DB.First(&user, "id = ?", session.UserID).Error; err != nil {
		if isNotFound(err) {
			return utils.OK(c, fiber.Map{"user": nil})
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	return utils.OK(c, fiber.Map{"user": userProfile(&user)})
}

type updateMeRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// UpdateMe changes the caller's own display name and/or email. The acting
// identity always comes from the token subject, never from a parameter.
func (h *AuthHandler) UpdateMe(c *fiber.Ctx) error {
	session := middleware.GetSession(c)

	var req updateMeRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", session.UserID).Error; err != nil {
		if isNotFound(err) {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	updates := map[string]interface{}{}

	if req.Name != nil {
		name, ok := sanitizeName(*req.Name)
		if !ok {
			return utils.Error(c, fiber.StatusBadRequest, "name must be between 2 and 80 characters")
		}
		updates["name"] = name
	}

	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if !isValidEmail(email) {
			return utils.Error(c, fiber.StatusBadRequest, "invalid email")
		}
		// Changing to one's own email modulo case is a no-op.
		if email != user.Email {
			var taken int64
			if err := h.DB.Model(&models.User{}).
				Where("email = ? AND id <> ?", email, user.ID).
				Count(&taken).Error; err != nil {
				return utils.Error(c, fiber.StatusInternalServerError, "internal error")
			}
			if taken > 0 {
				return utils.Error(c, fiber.StatusConflict, "email already in use")
			}
			updates["email"] = email
		}
	}

	if len(updates) > 0 {
		if err := h.DB.Model(&user).Updates(updates).Error; err != nil {
			if isDuplicateKey(err) {
				return utils.Error(c, fiber.StatusConflict, "email already in use")
			}
			return utils.Error(c, fiber.StatusInternalServerError, "internal error")
		}
	}

	if err := h.DB.First(&user, "id = ?", user.ID).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "self_profile_updated",
		ResourceType: "user",
		ResourceID:   &user.ID,
		IPAddress:    c.IP(),
	})

	return utils.OK(c, fiber.Map{"ok": true, "user": userProfile(&user)})
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	session := middleware.GetSession(c)

	var req passwordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Password) < minPasswordLength {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	var user models.User
	if err := h.DB.First(&user, "id = ?", session.UserID).Error; err != nil {
		if isNotFound(err) {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	if err := h.DB.Model(&user).Update("password_hash", hash).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	h.Audit.LogAsync(services.AuditEntry{
		UserID:       &user.ID,
		Action:       "self_password_changed",
		ResourceType: "user",
		ResourceID:   &user.ID,
		IPAddress:    c.IP(),
	})

	return utils.OK(c, fiber.Map{"ok": true})
}
