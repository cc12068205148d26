package service

import (
	"errors"

	"github.com/srseducares/educares-backend/models"
	"github.com/srseducares/educares-backend/repository"
	"github.com/srseducares/educares-backend/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 12

// RegisterInput 用户注册请求
type RegisterInput struct {
	Username string
	Email    string
	Phone    string
	City     string
	Password string
	Class    string
	Stream   string
	Course   string
	IsAdmin  bool
}

type AuthService interface {
	Register(input RegisterInput) (*models.User, string, error)
	Login(email, rawPassword string) (*models.User, string, error)
	LoginStudent(email, rawPassword string) (*models.Student, string, error)
	VerifyToken(token string) (*utils.Claims, error)
}

type AuthServiceImpl struct {
	users              repository.UserRepository
	students           repository.StudentRepository
	secret             string
	tokenExpireMinutes int
}

func NewAuthService(users repository.UserRepository, students repository.StudentRepository, secret string, tokenExpireMinutes int) AuthService {
	return &AuthServiceImpl{
		users:              users,
		students:           students,
		secret:             secret,
		tokenExpireMinutes: tokenExpireMinutes,
	}
}

func (s *AuthServiceImpl) Register(input RegisterInput) (*models.User, string, error) {
	if input.Username == "" || input.Email == "" || input.Phone == "" || input.Password == "" {
		return nil, "", NewValidationError("all required fields must be provided")
	}
	if len(input.Password) < 6 {
		return nil, "", NewValidationError("password must be at least 6 characters")
	}

	if _, err := s.users.GetByEmail(input.Email); err == nil {
		return nil, "", ErrEmailTaken
	}
	if _, err := s.users.GetByPhone(input.Phone); err == nil {
		return nil, "", ErrPhoneTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, "", err
	}

	user := &models.User{
		Username: input.Username,
		Email:    input.Email,
		Phone:    input.Phone,
		City:     input.City,
		Password: string(hash),
		Class:    input.Class,
		Stream:   input.Stream,
		Course:   input.Course,
		IsAdmin:  input.IsAdmin,
	}
	if err := s.users.Create(user); err != nil {
		return nil, "", err
	}

	token, err := s.tokenFor(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthServiceImpl) Login(email, rawPassword string) (*models.User, string, error) {
	if email == "" || rawPassword == "" {
		return nil, "", NewValidationError("email and password are required")
	}
	user, err := s.users.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(rawPassword)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokenFor(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthServiceImpl) LoginStudent(email, rawPassword string) (*models.Student, string, error) {
	if email == "" || rawPassword == "" {
		return nil, "", NewValidationError("email and password are required")
	}
	student, err := s.students.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(student.Password), []byte(rawPassword)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := utils.GenerateToken(s.secret, student.ID.String(), student.Email, student.Name, utils.RoleStudent, s.tokenExpireMinutes)
	if err != nil {
		return nil, "", err
	}
	return student, token, nil
}

func (s *AuthServiceImpl) VerifyToken(token string) (*utils.Claims, error) {
	return utils.ParseToken(s.secret, token)
}

// tokenFor 管理员签 admin 角色，其余用户签 student 角色
func (s *AuthServiceImpl) tokenFor(user *models.User) (string, error) {
	role := utils.RoleStudent
	if user.IsAdmin {
		role = utils.RoleAdmin
	}
	return utils.GenerateToken(s.secret, user.ID.String(), user.Email, user.Username, role, s.tokenExpireMinutes)
}
