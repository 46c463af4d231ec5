package errors

import (
	"strings"
	"unicode"
)

// maxPackageNameLength is the npm registry's limit on package name length.
const maxPackageNameLength = 214

// ValidatePackageName validates an npm package name supplied as analysis input.
// It rejects names that could be used for path traversal against the registry
// URL space or that the registry would never accept.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters or whitespace
//   - No path traversal sequences (.., //, backslash)
//   - Scoped names must have the form @scope/name
//   - Maximum length of 214 characters
//
// Uppercase letters are accepted because legacy packages still carry them.
func ValidatePackageName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidPackage, "package name cannot be empty")
	}

	if len(name) > maxPackageNameLength {
		return New(ErrCodeInvalidPackage, "package name too long (max %d characters)", maxPackageNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidPackage, "package name contains whitespace or control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidPackage, "package name contains invalid characters: %q", pattern)
		}
	}

	if strings.HasPrefix(name, "@") {
		scope, pkg, ok := strings.Cut(name[1:], "/")
		if !ok || scope == "" || pkg == "" || strings.Contains(pkg, "/") {
			return New(ErrCodeInvalidPackage, "scoped package name must look like @scope/name: %q", name)
		}
	} else if strings.Contains(name, "/") {
		return New(ErrCodeInvalidPackage, "unscoped package name cannot contain '/': %q", name)
	}

	return nil
}
