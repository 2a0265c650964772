package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"authgate/internal/adapters/persistence/models"
	"authgate/internal/adapters/persistence/repositories"
	"authgate/internal/config"
	"authgate/internal/core/domain"
	"authgate/internal/pkg/password"
	"authgate/internal/pkg/validate"

	"github.com/google/uuid"
)

// Fields a caller may set through UpdateNamedAttribute, with their
// restricted value sets. An empty set means any validated string.
var userNamedAttributes = map[string][]string{
	"status": {domain.StatusDisabled, domain.StatusReset},
}

// Reserved keys that can never be written through the open attribute bag.
var reservedUserAttributes = map[string]bool{
	"userId":       true,
	"email":        true,
	"status":       true,
	"passwordHash": true,
	"resetCode":    true,
	"resetExpiry":  true,
	"refreshJti":   true,
}

// UserService owns user account lifecycle and credential verification
type UserService struct {
	users repositories.UserRepository
	cfg   *config.Config
}

// NewUserService creates a new user service
func NewUserService(users repositories.UserRepository, cfg *config.Config) *UserService {
	return &UserService{users: users, cfg: cfg}
}

func userSnapshot(doc *models.User) *domain.User {
	attrs := make(map[string]string, len(doc.Attributes))
	for k, v := range doc.Attributes {
		attrs[k] = v
	}
	return &domain.User{
		UserID:      doc.UserID,
		Email:       doc.Email,
		Status:      doc.Status,
		ResetCode:   doc.ResetCode,
		ResetExpiry: doc.ResetExpiry,
		RefreshJti:  doc.RefreshJti,
		Attributes:  attrs,
	}
}

// generateResetCode derives an unpredictable reset code from a
// domain-seeded UUID and the current timestamp. The same inputs never
// regenerate the same code because the timestamp always moves.
func generateResetCode(userID uuid.UUID, serviceDomain string, now time.Time) string {
	seed := uuid.NewSHA1(userID, []byte(serviceDomain))
	h := sha512.New()
	h.Write([]byte(hex.EncodeToString(seed[:])))
	h.Write([]byte(now.Format(time.RFC3339Nano)))
	return hex.EncodeToString(h.Sum(nil))
}

// Create creates a user in `new` status with a reset code and no
// password. The reset code is returned for delivery to the user; the
// account cannot log in until a password is set through redemption.
func (s *UserService) Create(ctx context.Context, serviceDomain, email string) (*domain.User, string, error) {
	if email == "" {
		return nil, "", fmt.Errorf("%w: email address required", domain.ErrInput)
	}
	if serviceDomain == "" {
		return nil, "", fmt.Errorf("%w: domain required", domain.ErrInput)
	}
	if err := validate.Email(email); err != nil {
		return nil, "", err
	}

	now := time.Now()
	userID := uuid.New()
	resetCode := generateResetCode(userID, serviceDomain, now)
	resetExpiry := now.Add(s.resetValidity()).Format(time.RFC3339Nano)

	doc := &models.User{
		UserID:      userID.String(),
		Email:       email,
		Status:      domain.StatusNew,
		ResetCode:   resetCode,
		ResetExpiry: resetExpiry,
		Attributes:  models.StringMap{},
	}

	if err := s.users.Create(ctx, doc); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, "", fmt.Errorf("%w: user already exists", domain.ErrUserAction)
		}
		return nil, "", err
	}

	log.Printf("user created: %s", doc.UserID)
	return userSnapshot(doc), resetCode, nil
}

// GetByEmail returns a user snapshot by email address
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	doc, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return userSnapshot(doc), nil
}

// GetByID returns a user snapshot by id
func (s *UserService) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	doc, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return userSnapshot(doc), nil
}

// Authenticate verifies a plaintext password against the stored hash.
// A user without a password set can never authenticate; that is a false
// result, not an error.
func (s *UserService) Authenticate(ctx context.Context, userID, plaintext string) (bool, error) {
	doc, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if doc.PasswordHash == "" {
		return false, nil
	}
	return password.Verify(plaintext, doc.PasswordHash), nil
}

// SetPassword hashes and stores a new password, clears any outstanding
// reset code and activates the account
func (s *UserService) SetPassword(ctx context.Context, userID, plaintext string) (*domain.User, error) {
	if !password.ValidatePassword(plaintext) {
		return nil, fmt.Errorf("%w: password does not meet requirements", domain.ErrInput)
	}
	hash, err := password.Hash(plaintext)
	if err != nil {
		return nil, err
	}
	doc, err := s.users.Update(ctx, userID, map[string]interface{}{
		"passwordHash": hash,
		"resetCode":    "",
		"resetExpiry":  "",
		"status":       domain.StatusActive,
	})
	if err != nil {
		return nil, err
	}
	return userSnapshot(doc), nil
}

// ResetPassword issues a fresh reset code, scrambles the stored password
// so it stops working immediately, forces `reset` status and invalidates
// any outstanding refresh token. Returns the new reset code.
func (s *UserService) ResetPassword(ctx context.Context, userID, serviceDomain string) (string, error) {
	if serviceDomain == "" {
		return "", fmt.Errorf("%w: domain required", domain.ErrInput)
	}
	doc, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return "", err
	}

	id, err := uuid.Parse(doc.UserID)
	if err != nil {
		return "", fmt.Errorf("%w: invalid id", domain.ErrInput)
	}

	now := time.Now()
	resetCode := generateResetCode(id, serviceDomain, now)
	resetExpiry := now.Add(s.resetValidity()).Format(time.RFC3339Nano)

	scrambled, err := password.Scramble()
	if err != nil {
		return "", err
	}

	fields := map[string]interface{}{
		"status":       domain.StatusReset,
		"passwordHash": scrambled,
		"resetCode":    resetCode,
		"resetExpiry":  resetExpiry,
	}
	if doc.RefreshJti != "" {
		fields["refreshJti"] = ""
	}

	if _, err := s.users.Update(ctx, userID, fields); err != nil {
		return "", err
	}

	log.Printf("password reset issued: %s", userID)
	return resetCode, nil
}

// RedeemResetCode validates a reset code for the given account and, on
// success, sets the new password. Valid only in `new` or `reset` status,
// for the matching code, before expiry.
func (s *UserService) RedeemResetCode(ctx context.Context, email, resetCode, newPassword string) (*domain.User, error) {
	user, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if user.Status != domain.StatusNew && user.Status != domain.StatusReset {
		return nil, fmt.Errorf("%w: password not resetable", domain.ErrUserAction)
	}
	if user.ResetCode == "" || !hmac.Equal([]byte(user.ResetCode), []byte(resetCode)) {
		return nil, fmt.Errorf("%w: invalid reset code", domain.ErrAccessDenied)
	}

	expiry, err := time.Parse(time.RFC3339Nano, user.ResetExpiry)
	if err != nil || time.Now().After(expiry) {
		return nil, fmt.Errorf("%w: expired reset code", domain.ErrAccessDenied)
	}

	return s.SetPassword(ctx, user.UserID, newPassword)
}

// UpdateNamedAttribute sets one of the allowlisted document fields.
// Unknown names are rejected, as are values outside a field's restricted
// set.
func (s *UserService) UpdateNamedAttribute(ctx context.Context, userID, name, value string) (*domain.User, error) {
	allowed, ok := userNamedAttributes[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown attribute %q", domain.ErrInput, name)
	}
	if len(allowed) > 0 {
		match := false
		for _, v := range allowed {
			if v == value {
				match = true
				break
			}
		}
		if !match {
			return nil, fmt.Errorf("%w: value %q not permitted for %q", domain.ErrInput, value, name)
		}
	}
	doc, err := s.users.Update(ctx, userID, map[string]interface{}{name: value})
	if err != nil {
		return nil, err
	}
	return userSnapshot(doc), nil
}

// SetAttribute writes a key into the open attribute bag. Reserved keys
// are rejected. The bag is replaced wholesale; concurrent writers are
// last-writer-wins.
func (s *UserService) SetAttribute(ctx context.Context, userID, key, value string) (*domain.User, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: attribute name required", domain.ErrInput)
	}
	if reservedUserAttributes[key] {
		return nil, fmt.Errorf("%w: attribute %q is reserved", domain.ErrInput, key)
	}
	if err := validate.UserString(key); err != nil {
		return nil, err
	}
	if err := validate.UserString(value); err != nil {
		return nil, err
	}

	doc, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	attrs := make(models.StringMap, len(doc.Attributes)+1)
	for k, v := range doc.Attributes {
		attrs[k] = v
	}
	attrs[key] = value

	updated, err := s.users.Update(ctx, userID, map[string]interface{}{"attributes": attrs})
	if err != nil {
		return nil, err
	}
	return userSnapshot(updated), nil
}

// SetRefreshJti records the identifier of the most recently issued
// refresh token, superseding any prior value
func (s *UserService) SetRefreshJti(ctx context.Context, userID, jti string) error {
	_, err := s.users.Update(ctx, userID, map[string]interface{}{"refreshJti": jti})
	return err
}

// Delete removes a user document
func (s *UserService) Delete(ctx context.Context, userID string) error {
	if err := validate.UUID(userID); err != nil {
		return err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	log.Printf("user deleted: %s", userID)
	return nil
}

// FindLike returns email-to-id pairs for users whose email contains the
// given substring
func (s *UserService) FindLike(ctx context.Context, emailSubstring string) (map[string]string, error) {
	if emailSubstring == "" {
		return nil, fmt.Errorf("%w: search string required", domain.ErrInput)
	}
	refs, err := s.users.FindLike(ctx, emailSubstring)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		out[ref.Name] = ref.ID
	}
	return out, nil
}

func (s *UserService) resetValidity() time.Duration {
	days := s.cfg.Reset.ValidityDays
	if days <= 0 {
		days = 1
	}
	return time.Duration(days) * 24 * time.Hour
}
