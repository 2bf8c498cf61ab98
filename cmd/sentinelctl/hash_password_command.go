package main

import (
	"fmt"
	"io"

	"github.com/prankvz/sentinel/crypto"
)

func handleHashPassword(stdout io.Writer, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("%w: hash-password requires a password", ErrMissingArgument)
	}
	if len(args) > 1 {
		return fmt.Errorf("%w: quote passwords containing spaces", ErrTooManyArguments)
	}
	return hashPassword(stdout, args[0])
}

// hashPassword prints the bcrypt hash to put in admin.password_hash or
// SENTINEL_ADMIN_PASSWORD_HASH.
func hashPassword(stdout io.Writer, password string) error {
	if password == "" {
		return fmt.Errorf("%w: empty password", ErrMissingArgument)
	}
	hash, err := crypto.GenerateHash(password)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHashFailed, err)
	}
	if _, err := fmt.Fprintln(stdout, hash); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}
