package selector

import "errors"

var (
	// ErrWhitelistMisconfigured is returned when css_compiler_whitelist is
	// present but is not a sequence of strings
	ErrWhitelistMisconfigured = errors.New("whitelist misconfigured")

	// ErrWhitelistFileMissing is returned when a whitelist entry names a
	// source that does not exist under the source root
	ErrWhitelistFileMissing = errors.New("whitelisted file not found")

	// ErrWhitelistEntryInvalid is returned for an entry with more than one
	// ':' separator
	ErrWhitelistEntryInvalid = errors.New("whitelist entry invalid")
)
