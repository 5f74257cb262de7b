package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/trainerhub/backend/internal/models"
	"github.com/trainerhub/backend/internal/services"
	"github.com/trainerhub/backend/pkg/logger"
	"github.com/trainerhub/backend/pkg/utils"
	"gorm.io/gorm"
)

const studentListLimit = 50

// UsersHandler is the admin-only student-management surface. Every operation
// re-derives its target by normalized email and re-validates the student
// role, so admin accounts stay invisible to it.
type UsersHandler struct {
	DB    *gorm.DB
	Docs  *services.DocumentService
	Audit *services.AuditService
}

func NewUsersHandler(db *gorm.DB, docs *services.DocumentService, audit *services.AuditService) *UsersHandler {
	return &UsersHandler{DB: db, Docs: docs, Audit: audit}
}

type studentSummary struct {
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *UsersHandler) List(c *fiber.Ctx) error {
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))

	query := h.DB.Model(&models.User{}).Where("role = ?", models.UserRoleStudent)
	if q != "" {
		query = query.Where("LOWER(email) LIKE ?", "%"+q+"%")
	}

	var students []studentSummary
	if err := query.Order("created_at DESC").Limit(studentListLimit).Find(&students).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	return utils.OK(c, fiber.Map{"users": students})
}

type createStudentRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Active   *bool   `json:"active"`
	Name     *string `json:"name"`
}

func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req createStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	email := normalizeEmail(req.Email)
	if !isValidEmail(email) {
		return utils.Error(c, fiber.StatusBadRequest, "invalid email")
	}
	if len(req.Password) < minPasswordLength {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	var name *string
	if req.Name != nil {
		sanitized, ok := sanitizeName(*req.Name)
		if !ok {
			return utils.Error(c, fiber.StatusBadRequest, "name must be between 2 and 80 characters")
		}
		name = sanitized
	}

	var existing int64
	if err := h.DB.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}
	if existing > 0 {
		return utils.Error(c, fiber.StatusConflict, "user already exists")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	user := models.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         models.UserRoleStudent,
		Active:       active,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		// The existence check above races with concurrent creates; the
		// unique constraint is the real enforcement.
		if isDuplicateKey(err) {
			return utils.Error(c, fiber.StatusConflict, "user already exists")
		}
		logger.Error("student_create_failed", err, map[string]interface{}{"email": email})
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	h.audit(c, "student_created", &user)

	return utils.OK(c, fiber.Map{
		"ok": true,
		"user": fiber.Map{
			"email":     user.Email,
			"name":      user.Name,
			"active":    user.Active,
			"role":      user.Role,
			"createdAt": user.CreatedAt,
		},
	})
}

func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := findStudentByEmail(h.DB, paramEmail(c))
	if err != nil {
		if isNotFound(err) {
			return utils.Error(c, fiber.StatusNotFound, "student not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	return utils.OK(c, fiber.Map{
		"user": fiber.Map{
			"email":     user.Email,
			"name":      user.Name,
			"active":    user.Active,
			"role":      user.Role,
			"createdAt": user.CreatedAt,
		},
	})
}

type setActiveRequest struct {
	Active *bool `json:"active"`
}

func (h *UsersHandler) SetActive(c *fiber.Ctx) error {
	var req setActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Active == nil {
		return utils.Error(c, fiber.StatusBadRequest, "active is required")
	}

	user, err := findStudentByEmail(h.DB, paramEmail(c))
	if err != nil {
		if isNotFound(err) {
			return utils.Error(c, fiber.StatusNotFound, "student not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	if err := h.DB.Model(user).Update("active", *req.Active).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	h.audit(c, "student_active_changed", user)

	return utils.OK(c, fiber.Map{
		"ok":   true,
		"user": fiber.Map{"email": user.Email, "active": *req.Active},
	})
}

type updateProfileRequest struct {
	Name *string `json:"name"`
}

func (h *UsersHandler) UpdateProfile(c *fiber.Ctx) error {
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Name == nil {
		return utils.Error(c, fiber.StatusBadRequest, "no valid fields to update")
	}

	name, ok := sanitizeName(*req.Name)
	if !ok {
		return utils.Error(c, fiber.StatusBadRequest, "name must be between 2 and 80 characters")
	}

	user, err := findStudentByEmail(h.DB, paramEmail(c))
	if err != nil {
		if isNotFound(err) {
			return utils.Error(c, fiber.StatusNotFound, "student not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	if err := h.DB.Model(user).Update("name", name).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	h.audit(c, "student_profile_updated", user)

	return utils.OK(c, fiber.Map{
		"ok":   true,
		"user": fiber.Map{"email": user.Email, "name": name},
	})
}

func (h *UsersHandler) ResetPassword(c *fiber.Ctx) error {
	var req passwordRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Password) < minPasswordLength {
		return utils.Error(c, fiber.StatusBadRequest, "password must be at least 6 characters")
	}

	user, err := findStudentByEmail(h.DB, paramEmail(c))
	if err != nil {
		if isNotFound(err) {
			return utils.Error(c, fiber.StatusNotFound, "student not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	// Previously issued tokens stay valid until natural expiry; only the
	// credential changes.
	if err := h.DB.Model(user).Update("password_hash", hash).Error; err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	h.audit(c, "student_password_reset", user)

	return utils.OK(c, fiber.Map{"ok": true})
}

func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	user, err := findStudentByEmail(h.DB, paramEmail(c))
	if err != nil {
		if isNotFound(err) {
			return utils.Error(c, fiber.StatusNotFound, "student not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	// Hard delete: the assignment rows go in the same transaction so no
	// orphans survive a partial failure.
	err = h.DB.Transaction(func(tx *gorm.DB) error {
		if err := h.Docs.DeleteAllFor(tx, user.ID); err != nil {
			return err
		}
		return tx.Delete(&models.User{}, "id = ?", user.ID).Error
	})
	if err != nil {
		logger.Error("student_delete_failed", err, map[string]interface{}{"email": user.Email})
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	h.audit(c, "student_deleted", user)

	return utils.OK(c, fiber.Map{"ok": true})
}

func (h *UsersHandler) audit(c *fiber.Ctx, action string, target *models.User) {
	h.Audit.LogAsync(services.AuditEntry{
		Action:       action,
		ResourceType: "user",
		ResourceID:   &target.ID,
		Details:      map[string]interface{}{"email": target.Email},
		IPAddress:    c.IP(),
	})
}
