package service

import "errors"

var (
	ErrMaterialNotFound   = errors.New("material not found")
	ErrStudentNotFound    = errors.New("student not found")
	ErrFileNotFound       = errors.New("file not found on server")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrPhoneTaken         = errors.New("phone number already registered")
)

// ValidationError 输入校验失败，对应 HTTP 400
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(msg string) error {
	return &ValidationError{Message: msg}
}

// IsValidation 判断错误是否属于校验类
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
