package password

import "golang.org/x/crypto/bcrypt"

// DefaultCost is the fixed work factor used for stored credentials.
const DefaultCost = 10

func Hash(plain string) (string, error) {
	return HashWithCost(plain, DefaultCost)
}

func HashWithCost(plain string, cost int) (string, error) {
	if cost <= 0 {
		cost = DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func Compare(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// IsMismatch reports whether err means the password did not match, as
// opposed to a malformed stored hash.
func IsMismatch(err error) bool {
	return err == bcrypt.ErrMismatchedHashAndPassword
}
