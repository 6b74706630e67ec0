package provider

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"backend error", &Error{Status: 422, Message: "User already registered"}, "User already registered"},
		{"wrapped backend error", errors.Wrap(&Error{Status: 400, Message: "Invalid email"}, "sign up"), "Invalid email"},
		{"empty backend message", &Error{Status: 500}, "Unexpected error"},
		{"invalid credentials", ErrInvalidCredentials, "Invalid login credentials"},
		{"not found", errors.Wrap(ErrNotFound, "profile"), "Not found"},
		{"unauthorized", ErrUnauthorized, "Unauthorized"},
		{"other", errors.New("boom"), "Unexpected error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Message(tt.err))
		})
	}
}
