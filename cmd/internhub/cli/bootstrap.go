package cli

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/internhub/internhub/internal/shared"
	"github.com/internhub/internhub/internal/users"
)

// AdminAccounts is the slice of the users service used by bootstrap-admin.
type AdminAccounts interface {
	ListUsers(ctx context.Context, filter users.ListFilter) ([]users.User, error)
	CreateUser(ctx context.Context, actor shared.Principal, in users.CreateInput) (users.User, error)
}

// BootstrapOptions configures the initial CEO account.
type BootstrapOptions struct {
	Email    string
	Password string
	Name     string
	Stdout   io.Writer
}

// BootstrapAdmin creates a CEO account when none exists. It is idempotent and
// reports whether an account was created. A generated password is printed
// once to Stdout.
func BootstrapAdmin(ctx context.Context, accounts AdminAccounts, opts BootstrapOptions) (bool, error) {
	if opts.Email == "" {
		return false, errors.New("bootstrap-admin: email is required")
	}
	existing, err := accounts.ListUsers(ctx, users.ListFilter{Role: shared.RoleCEO})
	if err != nil {
		return false, err
	}
	if len(existing) > 0 {
		return false, nil
	}

	password := opts.Password
	generated := password == ""
	if generated {
		if password, err = generatePassword(24); err != nil {
			return false, err
		}
	}
	name := opts.Name
	if name == "" {
		name = "Administrator"
	}

	if _, err := accounts.CreateUser(ctx, shared.Principal{Role: shared.RoleCEO}, users.CreateInput{
		Email:    opts.Email,
		Password: password,
		Name:     name,
		Role:     string(shared.RoleCEO),
	}); err != nil {
		return false, err
	}

	if opts.Stdout != nil {
		if generated {
			_, _ = fmt.Fprintf(opts.Stdout, "initial admin created email=%s password=%s\n", opts.Email, password)
		} else {
			_, _ = fmt.Fprintf(opts.Stdout, "initial admin created email=%s\n", opts.Email)
		}
	}
	return true, nil
}

func generatePassword(length int) (string, error) {
	if length <= 0 {
		return "", errors.New("password length must be positive")
	}
	raw := make([]byte, length)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw)[:length], nil
}
