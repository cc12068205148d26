package repository

import (
	"github.com/srseducares/educares-backend/models"

	"gorm.io/gorm"
)

type StudentRepository interface {
	BaseRepository[models.Student]
	GetByEmail(email string) (*models.Student, error)
}

type StudentRepositoryImpl struct {
	*BaseRepositoryImpl[models.Student]
}

func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &StudentRepositoryImpl{BaseRepositoryImpl: NewBaseRepository[models.Student](db)}
}

func (r *StudentRepositoryImpl) GetByEmail(email string) (*models.Student, error) {
	var student models.Student
	err := r.db.Where("email = ?", email).First(&student).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}
