package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes an owner or renter password with bcrypt at the
// configured cost. The cost comes from BCRYPT_COST so tests can use a
// cheap value.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// The comparison is constant time; a malformed hash simply fails.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
