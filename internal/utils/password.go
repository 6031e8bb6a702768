package utils

import "golang.org/x/crypto/bcrypt"

// MinPasswordLen is the minimum accepted password length wherever a
// credential is set or changed.
const MinPasswordLen = 6

// HashPassword returns a bcrypt hash of the plaintext using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
