package password

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12

	// Alphanumeric is the charset for public identifiers (app keys)
	Alphanumeric = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	// SecretCharset adds symbols safe to carry in a basic-auth payload
	SecretCharset = Alphanumeric + "-_.~!*+="
)

// Hash hashes a password or app secret using bcrypt
func Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify compares a plaintext credential with a stored hash using
// bcrypt's constant-time comparison
func Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// RandomToken returns a random string of the given length drawn from
// charset, using crypto/rand
func RandomToken(length int, charset string) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(charset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}

// Scramble returns a bcrypt hash of a random 64-character throwaway value.
// Used during a password reset so the old password stops working
// immediately without leaving the account passwordless.
func Scramble() (string, error) {
	throwaway, err := RandomToken(64, Alphanumeric)
	if err != nil {
		return "", err
	}
	return Hash(throwaway)
}

// ValidatePassword checks if password meets requirements
func ValidatePassword(password string) bool {
	return len(password) >= 8
}
