package plugins

import "errors"

var (
	// ErrNotFound is returned when no plugin is registered under a name
	ErrNotFound = errors.New("compiler plugin not found")

	// ErrAlreadyRegistered is returned when a name is registered twice
	ErrAlreadyRegistered = errors.New("compiler plugin already registered")

	// ErrIncompatible is returned when a plugin does not satisfy the compiler contract
	ErrIncompatible = errors.New("compiler plugin incompatible")

	// ErrCommandFailed is returned when a command-backed plugin exits unsuccessfully
	ErrCommandFailed = errors.New("compiler command failed")
)
