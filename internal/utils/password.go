package utils

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is the work factor used when the configured cost is out
// of bcrypt's accepted range.  2^10 rounds, matching the original salt
// rounds of the storefront.
const DefaultBcryptCost = 10

// HashPassword returns a salted bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
