package service

import (
	"time"

	"github.com/bkopanichuk/ems/pkg/constant"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Production implementations of the clock, id-generator and password-hasher
// seams. Tests substitute their own.

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string {
	return uuid.NewString()
}

type BcryptHasher struct{}

func (BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), constant.BcryptCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func (BcryptHasher) Verify(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
