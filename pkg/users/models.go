package users

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DefaultRole is assigned when a record is created without a role
const DefaultRole = "user"

// User represents a registered account. The password field holds the bcrypt hash.
type User struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Password  string    `gorm:"not null" json:"password"`
	Firstname string    `gorm:"not null" json:"firstname"`
	Lastname  string    `gorm:"not null" json:"lastname"`
	Age       *int      `json:"age"`
	Phone     *string   `json:"phone"`
	Role      string    `gorm:"not null;default:'user'" json:"role"`
	IsActive  bool      `gorm:"not null" json:"isActive"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

// TableName overrides the table name used by GORM
func (User) TableName() string {
	return "users"
}

// BeforeCreate hook for User model
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = DefaultRole
	}
	return nil
}

// Token is the server-side record of an issued session token
type Token struct {
	Token     string    `gorm:"primaryKey;type:text" json:"token"`
	UserID    string    `gorm:"not null;index;type:varchar(36)" json:"userId"`
	IsValid   bool      `gorm:"not null;index" json:"isValid"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
}

// TableName overrides the table name used by GORM
func (Token) TableName() string {
	return "tokens"
}

// Identity is the decoded subject of an authenticated request
type Identity struct {
	UserID    string    `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"exp"`
	Token     string    `json:"-"`
}

// LoginResult is returned by a successful login
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// UserPage is one page of a filtered listing
type UserPage struct {
	Users      []User `json:"users"`
	Total      int64  `json:"total"`
	Page       int    `json:"page"`
	PageSize   int    `json:"pageSize"`
	TotalPages int    `json:"totalPages"`
}
