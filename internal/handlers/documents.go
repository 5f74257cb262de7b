package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/trainerhub/backend/internal/middleware"
	"github.com/trainerhub/backend/internal/models"
	"github.com/trainerhub/backend/internal/services"
	"github.com/trainerhub/backend/pkg/utils"
	"gorm.io/gorm"
)

type DocumentsHandler struct {
	DB    *gorm.DB
	Docs  *services.DocumentService
	Audit *services.AuditService
}

func NewDocumentsHandler(db *gorm.DB, docs *services.DocumentService, audit *services.AuditService) *DocumentsHandler {
	return &DocumentsHandler{DB: db, Docs: docs, Audit: audit}
}

// Mine returns the caller's own document mapping. The token outlives account
// changes, so existence and the active flag are re-checked here: a vanished
// subject is 404, a deactivated one 403.
func (h *DocumentsHandler) Mine(c *fiber.Ctx) error {
	session := middleware.GetSession(c)

	var user models.User
	if err := h.DB.First(&user, "id = ?", session.UserID).Error; err != nil {
		if isNotFound(err) {
			return utils.Error(c, fiber.StatusNotFound, "user not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}
	if !user.Active {
		return utils.Error(c, fiber.StatusForbidden, "account disabled")
	}

	mapping, err := h.Docs.Mapping(user.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	return utils.OK(c, mapping)
}

func (h *DocumentsHandler) AdminGet(c *fiber.Ctx) error {
	user, err := findStudentByEmail(h.DB, paramEmail(c))
	if err != nil {
		if isNotFound(err) {
			return utils.Error(c, fiber.StatusNotFound, "student not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	mapping, err := h.Docs.Mapping(user.ID)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	return utils.OK(c, mapping)
}

// AdminPut applies a partial docType→url patch to one student. Only
// string-valued keys count; unknown types are accepted and stored but stay
// invisible in the fixed-shape read until the vocabulary grows. The response
// is the mapping read back from the store, not the echoed input.
func (h *DocumentsHandler) AdminPut(c *fiber.Ctx) error {
	var body map[string]interface{}
	if err := c.BodyParser(&body); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	patch := make(map[string]string, len(body))
	for key, value := range body {
		if url, ok := value.(string); ok {
			patch[key] = url
		}
	}

	user, err := findStudentByEmail(h.DB, paramEmail(c))
	if err != nil {
		if isNotFound(err) {
			return utils.Error(c, fiber.StatusNotFound, "student not found")
		}
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	mapping, err := h.Docs.ApplyPatch(user.ID, patch)
	if err != nil {
		return utils.Error(c, fiber.StatusInternalServerError, "internal error")
	}

	h.Audit.LogAsync(services.AuditEntry{
		Action:       "documents_updated",
		ResourceType: "student_document",
		ResourceID:   &user.ID,
		Details:      map[string]interface{}{"email": user.Email},
		IPAddress:    c.IP(),
	})

	return utils.OK(c, mapping)
}
