package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/trainerhub/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DocumentService owns the per-student document assignments. The known
// document-type vocabulary comes from configuration; reads always return the
// full vocabulary (missing rows as ""), and writes tolerate unknown types,
// which stay stored but invisible until the vocabulary is extended.
type DocumentService struct {
	DB    *gorm.DB
	types []string
}

func NewDocumentService(db *gorm.DB, types []string) *DocumentService {
	normalized := make([]string, 0, len(types))
	seen := map[string]bool{}
	for _, t := range types {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		normalized = append(normalized, t)
	}
	return &DocumentService{DB: db, types: normalized}
}

func (s *DocumentService) Types() []string {
	return append([]string(nil), s.types...)
}

// Mapping returns the fixed-shape docType→url map for one student. Every
// known type is present, "" meaning no assignment.
func (s *DocumentService) Mapping(userID uuid.UUID) (map[string]string, error) {
	out := make(map[string]string, len(s.types))
	for _, t := range s.types {
		out[t] = ""
	}

	var docs []models.StudentDocument
	if err := s.DB.Where("user_id = ?", userID).Find(&docs).Error; err != nil {
		return nil, err
	}

	for _, doc := range docs {
		if _, known := out[doc.DocType]; known {
			out[doc.DocType] = doc.URL
		}
	}

	return out, nil
}

// ApplyPatch merges a partial docType→url patch: keys absent from the patch
// are untouched, a blank url deletes the row, anything else upserts on the
// (userID, docType) natural key. The whole patch commits or rolls back as
// one transaction, and the returned mapping is re-read from the store.
func (s *DocumentService) ApplyPatch(userID uuid.UUID, patch map[string]string) (map[string]string, error) {
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		for rawType, rawURL := range patch {
			docType := strings.ToLower(strings.TrimSpace(rawType))
			if docType == "" {
				continue
			}

			url := strings.TrimSpace(rawURL)
			if url == "" {
				if err := tx.Where("user_id = ? AND doc_type = ?", userID, docType).
					Delete(&models.StudentDocument{}).Error; err != nil {
					return err
				}
				continue
			}

			doc := models.StudentDocument{
				UserID:  userID,
				DocType: docType,
				URL:     url,
			}
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "user_id"}, {Name: "doc_type"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"url":        url,
					"updated_at": time.Now().UTC(),
				}),
			}).Create(&doc).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Mapping(userID)
}

// DeleteAllFor removes every assignment row for one student, used inside the
// user hard-delete transaction so no orphaned rows survive.
func (s *DocumentService) DeleteAllFor(tx *gorm.DB, userID uuid.UUID) error {
	return tx.Where("user_id = ?", userID).Delete(&models.StudentDocument{}).Error
}
