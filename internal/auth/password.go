package auth

import "golang.org/x/crypto/bcrypt"

// BcryptCost is fixed; changing it only affects newly created hashes.
const BcryptCost = 10

// Hasher abstracts one-way password hashing so the credential issuer
// can be tested against a fake implementation.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(digest, plain string) bool
}

// BcryptHasher is the production Hasher.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: BcryptCost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

func (h *BcryptHasher) Compare(digest, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
