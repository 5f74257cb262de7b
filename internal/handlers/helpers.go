package handlers

import (
	"errors"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"github.com/trainerhub/backend/internal/models"
	"gorm.io/gorm"
)

const minPasswordLength = 6

// normalizeEmail is applied before every read or write so the unique email
// index is effectively case-insensitive.
func normalizeEmail(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isValidEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	return err == nil && addr.Address == value
}

// sanitizeName turns blank input into nil (names are never stored as empty
// strings) and enforces the 2-80 character bound. The second return value is
// false when the name is present but out of bounds.
func sanitizeName(value string) (*string, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, true
	}
	if utf8.RuneCountInString(trimmed) < 2 || utf8.RuneCountInString(trimmed) > 80 {
		return nil, false
	}
	return &trimmed, true
}

func paramEmail(c *fiber.Ctx) string {
	raw := c.Params("email")
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return normalizeEmail(raw)
}

func userProfile(user *models.User) fiber.Map {
	return fiber.Map{
		"email":  user.Email,
		"name":   user.Name,
		"active": user.Active,
		"role":   user.Role,
	}
}

// findStudentByEmail resolves an admin route parameter to a student row.
// A matching row with a non-student role reports the same not-found as an
// absent row, so the student surface cannot probe admin accounts.
func findStudentByEmail(db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.First(&user, "email = ?", email).Error; err != nil {
		return nil, err
	}
	if user.Role != models.UserRoleStudent {
		return nil, gorm.ErrRecordNotFound
	}
	return &user, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
