package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// BcryptCost matches the cost used when the user base was first hashed;
	// changing it only affects newly set passwords.
	BcryptCost = 12

	// MinStudentPasswordLen applies to student (aluno) accounts.
	MinStudentPasswordLen = 6
	// MinStaffPasswordLen applies to staff (admin/editor) accounts.
	MinStaffPasswordLen = 8
)

func HashPassword(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
