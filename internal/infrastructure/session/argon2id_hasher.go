package session

import (
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"

	"github.com/turtacn/kpidash/internal/domain/service"
)

// passwordParams follows the OWASP minimum for Argon2id.
var passwordParams = &argon2id.Params{
	Memory:      47 * 1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

type argon2idHasher struct {
	params *argon2id.Params
}

// NewPasswordHasher returns an Argon2id hasher producing PHC-format hashes.
func NewPasswordHasher() service.PasswordHasher {
	return &argon2idHasher{params: passwordParams}
}

func (h *argon2idHasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password, h.params)
}

// Compare never panics; the argon2 library panics on malformed parameters.
func (h *argon2idHasher) Compare(password, hash string) (match bool, err error) {
	if !strings.HasPrefix(hash, "$argon2id$") {
		return false, nil
	}
	defer func() {
		if r := recover(); r != nil {
			match = false
			err = fmt.Errorf("invalid argon2id hash parameters: %v", r)
		}
	}()
	return argon2id.ComparePasswordAndHash(password, hash)
}
