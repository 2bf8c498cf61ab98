package main

import "errors"

var (
	ErrMissingCommand  = errors.New("missing command")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrDBNotFound      = errors.New("database file not found")
	ErrDBAlreadyExists = errors.New("database file already exists")
	ErrCreateDbPool    = errors.New("failed to create database pool")
	ErrCreateDbImpl    = errors.New("failed to instantiate zombiezen db from pool")
	ErrMigrate         = errors.New("failed to apply schema")
	ErrWriteOutput     = errors.New("failed to write output")

	// command parsing errors
	ErrMissingArgument  = errors.New("missing required argument")
	ErrTooManyArguments = errors.New("too many arguments")
	ErrInvalidFlag      = errors.New("invalid flag provided")
	ErrInvalidAddress   = errors.New("invalid ip address")

	ErrBlockFailed   = errors.New("failed to block address")
	ErrUnblockFailed = errors.New("failed to unblock address")
	ErrListFailed    = errors.New("failed to list")
	ErrHashFailed    = errors.New("failed to hash password")
)
