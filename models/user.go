package models

// User 平台用户（管理员与普通用户），密码仅存 bcrypt hash
type User struct {
	Base
	Username string `gorm:"not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Phone    string `gorm:"uniqueIndex;not null" json:"phone"`
	City     string `json:"city"`
	Password string `gorm:"not null" json:"-"` // bcrypt hash
	Class    string `json:"userClass"`
	Stream   string `json:"userStream"`
	Course   string `json:"userCourse"`
	IsAdmin  bool   `gorm:"default:false" json:"isAdmin"`
}
