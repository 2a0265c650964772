package validate

import (
	"errors"
	"testing"

	"authgate/internal/core/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestUserString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain value", "engineering", false},
		{"empty allowed", "", false},
		{"email-ish value", "bob@example.com", false},
		{"leading dot allowed for users", ".hidden", false},
		{"dollar rejected", "a$b", true},
		{"semicolon rejected", "a;b", true},
		{"comma rejected", "a,b", true},
		{"open paren rejected", "a(b", true},
		{"close paren rejected", "a)b", true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := UserString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGroupString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"plain name", "engineering", false},
		{"leading dot rejected", ".system", true},
		{"dollar rejected", "eng$", true},
		{"inner dot allowed", "eng.platform", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := GroupString(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEmail(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Email("alice@example.com"))
	assert.Error(t, Email("alice.example.com"))
	assert.Error(t, Email("alice@localhost"))
	assert.Error(t, Email("alice@exa$mple.com"))
	assert.Error(t, Email(""))
}

func TestUUID(t *testing.T) {
	t.Parallel()

	assert.NoError(t, UUID(uuid.New().String()))

	err := UUID("not-a-uuid")
	assert.True(t, errors.Is(err, domain.ErrInput))
}
