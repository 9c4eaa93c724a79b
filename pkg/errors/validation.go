package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateNodeID validates a node or edge identifier.
//
// The rules are intentionally conservative because ids travel through
// clipboard payloads, cache keys and storage keys:
//   - No empty ids
//   - No control characters or null bytes
//   - No whitespace at either end
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidNode, "id cannot be empty")
	}

	if len(id) > 256 {
		return New(ErrCodeInvalidNode, "id too long (max 256 characters)")
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidNode, "id contains invalid control characters")
		}
	}

	if strings.TrimSpace(id) != id {
		return New(ErrCodeInvalidNode, "id cannot start or end with whitespace")
	}

	return nil
}

// nodeTypeRegex matches registry type keys such as "telegram.webhook" or "llm_call".
var nodeTypeRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateNodeType validates a registry type key carried by a node or a
// palette drop payload.
func ValidateNodeType(typ string) error {
	if typ == "" {
		return New(ErrCodeInvalidNode, "node type cannot be empty")
	}

	if len(typ) > 128 {
		return New(ErrCodeInvalidNode, "node type too long (max 128 characters)")
	}

	if !nodeTypeRegex.MatchString(typ) {
		return New(ErrCodeInvalidNode, "invalid node type: %q", typ)
	}

	return nil
}

// ValidateGraphName validates the user-facing graph name.
// Empty names are allowed; the save payload substitutes a default.
func ValidateGraphName(name string) error {
	const maxNameLength = 200
	if len(name) > maxNameLength {
		return New(ErrCodeInvalidInput, "graph name too long (max %d characters)", maxNameLength)
	}

	for _, r := range name {
		if r == '\x00' || (unicode.IsControl(r) && r != '\t') {
			return New(ErrCodeInvalidInput, "graph name contains invalid characters")
		}
	}

	return nil
}

// ValidateStorageKey validates an identifier used as a storage key for
// saved graph drafts. It rejects anything that could escape a directory.
func ValidateStorageKey(key string) error {
	if err := ValidateNodeID(key); err != nil {
		return New(ErrCodeInvalidInput, "invalid graph id: %s", UserMessage(err))
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"/",    // Path separator
		"\\",   // Backslash (Windows path)
		"\x00", // Null byte
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(key, pattern) {
			return New(ErrCodeInvalidInput, "graph id contains invalid characters: %q", pattern)
		}
	}

	return nil
}
