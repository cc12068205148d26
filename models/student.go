package models

// Student 学生注册档案，course 字段用于资料的选课过滤
type Student struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Phone    string `json:"phone"`
	Course   string `gorm:"not null" json:"course"`
	Password string `gorm:"not null" json:"-"` // bcrypt hash
}
