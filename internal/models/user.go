package models

type UserRole string

const (
	UserRoleAdmin   UserRole = "admin"
	UserRoleStudent UserRole = "student"
)

type User struct {
	BaseModel
	Email        string   `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash string   `json:"-" gorm:"type:text;not null"`
	Name         *string  `json:"name" gorm:"type:varchar(80)"`
	Role         UserRole `json:"role" gorm:"type:varchar(20);not null;default:'student'"`
	Active       bool     `json:"active" gorm:"not null;default:true"`

	Documents []StudentDocument `json:"-" gorm:"foreignKey:UserID"`
}

func (User) TableName() string {
	return "users"
}
