package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"authgate/internal/adapters/persistence/models"
	"authgate/internal/adapters/persistence/repositories"
	"authgate/internal/core/domain"
	"authgate/internal/pkg/password"
	"authgate/internal/pkg/validate"

	"github.com/google/uuid"
)

const (
	appKeyLength    = 32
	appSecretLength = 48
)

// AppService owns machine-principal lifecycle and secret verification
type AppService struct {
	apps repositories.AppRepository
}

// NewAppService creates a new app service
func NewAppService(apps repositories.AppRepository) *AppService {
	return &AppService{apps: apps}
}

func appSnapshot(doc *models.App) *domain.App {
	attrs := make(map[string]string, len(doc.Attributes))
	for k, v := range doc.Attributes {
		attrs[k] = v
	}
	return &domain.App{
		AppID:      doc.AppID,
		AppName:    doc.AppName,
		Key:        doc.Key,
		Attributes: attrs,
	}
}

// Create creates an app and returns its credentials. The plaintext
// secret exists outside memory only in this return value; the store
// keeps its hash.
func (s *AppService) Create(ctx context.Context, name string, attributes map[string]string) (*domain.AppCredentials, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: app name not given", domain.ErrInput)
	}
	if err := validate.UserString(name); err != nil {
		return nil, err
	}
	attrs := models.StringMap{}
	for k, v := range attributes {
		if err := validate.UserString(k); err != nil {
			return nil, err
		}
		if err := validate.UserString(v); err != nil {
			return nil, err
		}
		attrs[k] = v
	}

	key, err := password.RandomToken(appKeyLength, password.Alphanumeric)
	if err != nil {
		return nil, err
	}
	secret, err := password.RandomToken(appSecretLength, password.SecretCharset)
	if err != nil {
		return nil, err
	}
	secretHash, err := password.Hash(secret)
	if err != nil {
		return nil, err
	}

	doc := &models.App{
		AppID:      uuid.New().String(),
		AppName:    name,
		Key:        key,
		SecretHash: secretHash,
		Attributes: attrs,
	}

	if err := s.apps.Create(ctx, doc); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, fmt.Errorf("%w: app already exists", domain.ErrAppAction)
		}
		return nil, err
	}

	log.Printf("app created: %s (%s)", doc.AppName, doc.AppID)
	return &domain.AppCredentials{
		AppID:   doc.AppID,
		AppName: doc.AppName,
		Key:     doc.Key,
		Secret:  secret,
	}, nil
}

// Authenticate verifies a plaintext secret against the stored hash
func (s *AppService) Authenticate(ctx context.Context, appID, secret string) (bool, error) {
	doc, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		return false, err
	}
	if doc.SecretHash == "" {
		return false, nil
	}
	return password.Verify(secret, doc.SecretHash), nil
}

// GetByID returns an app snapshot by id
func (s *AppService) GetByID(ctx context.Context, appID string) (*domain.App, error) {
	doc, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	return appSnapshot(doc), nil
}

// GetByName returns an app snapshot by its unique name
func (s *AppService) GetByName(ctx context.Context, appName string) (*domain.App, error) {
	doc, err := s.apps.GetByName(ctx, appName)
	if err != nil {
		return nil, err
	}
	return appSnapshot(doc), nil
}

// GetByKey returns an app snapshot by its public key identifier
func (s *AppService) GetByKey(ctx context.Context, key string) (*domain.App, error) {
	doc, err := s.apps.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	return appSnapshot(doc), nil
}

// SetAttribute writes a key into the app attribute bag. The reserved
// writeEnabled key only accepts "True" or "False".
func (s *AppService) SetAttribute(ctx context.Context, appID, key, value string) (*domain.App, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: attribute name required", domain.ErrInput)
	}
	if err := validate.UserString(key); err != nil {
		return nil, err
	}
	if err := validate.UserString(value); err != nil {
		return nil, err
	}
	if key == domain.AttrWriteEnabled && value != "True" && value != "False" {
		return nil, fmt.Errorf("%w: %s must be \"True\" or \"False\"", domain.ErrInput, domain.AttrWriteEnabled)
	}

	doc, err := s.apps.GetByID(ctx, appID)
	if err != nil {
		return nil, err
	}
	attrs := make(models.StringMap, len(doc.Attributes)+1)
	for k, v := range doc.Attributes {
		attrs[k] = v
	}
	attrs[key] = value

	updated, err := s.apps.Update(ctx, appID, map[string]interface{}{"attributes": attrs})
	if err != nil {
		return nil, err
	}
	return appSnapshot(updated), nil
}

// Delete removes an app document
func (s *AppService) Delete(ctx context.Context, appID string) error {
	if err := validate.UUID(appID); err != nil {
		return err
	}
	if err := s.apps.Delete(ctx, appID); err != nil {
		return err
	}
	log.Printf("app deleted: %s", appID)
	return nil
}

// FindLike returns name-to-id pairs for apps whose name contains the
// given substring. No matches is a not-found condition.
func (s *AppService) FindLike(ctx context.Context, nameSubstring string) (map[string]string, error) {
	if nameSubstring == "" {
		return nil, fmt.Errorf("%w: app name not given", domain.ErrInput)
	}
	refs, err := s.apps.FindLike(ctx, nameSubstring)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: no apps found", domain.ErrAppNotFound)
	}
	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		out[ref.Name] = ref.ID
	}
	return out, nil
}
