package models

import "github.com/google/uuid"

// StudentDocument links one student to one externally hosted document.
// The (UserID, DocType) pair is the natural key: writes go through an
// ON CONFLICT upsert so at most one row exists per pair.
type StudentDocument struct {
	BaseModel
	UserID  uuid.UUID `json:"userID" gorm:"type:uuid;not null;uniqueIndex:idx_student_documents_user_type"`
	DocType string    `json:"docType" gorm:"type:varchar(30);not null;uniqueIndex:idx_student_documents_user_type"`
	URL     string    `json:"url" gorm:"type:text;not null"`
}

func (StudentDocument) TableName() string {
	return "student_documents"
}
