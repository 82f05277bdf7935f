package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidatePathWithinBoundary ensures that targetPath is within or equal to boundaryPath,
// so that "../" sequences cannot escape the intended directory.
//
// Example:
//
//	boundary := "/srv/netflow"
//	target := "/srv/netflow/scripts/login.yaml"  // valid
//	target := "/srv/netflow/../../etc/passwd"    // invalid
//
// Returns an error if:
//   - Either path cannot be resolved to absolute form
//   - targetPath is outside boundaryPath (escapes using "..")
func ValidatePathWithinBoundary(boundaryPath, targetPath string) error {
	absBoundary, err := filepath.Abs(boundaryPath)
	if err != nil {
		return fmt.Errorf("failed to resolve boundary path %q: %w", boundaryPath, err)
	}

	absTarget, err := filepath.Abs(targetPath)
	if err != nil {
		return fmt.Errorf("failed to resolve target path %q: %w", targetPath, err)
	}

	// Compute relative path from boundary to target
	rel, err := filepath.Rel(absBoundary, absTarget)
	if err != nil {
		return fmt.Errorf("invalid path relationship between %q and %q: %w", absBoundary, absTarget, err)
	}

	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %q escapes boundary %q", targetPath, boundaryPath)
	}

	return nil
}

// JoinWithinBoundary joins name onto boundaryPath and rejects the result if it
// leaves boundaryPath. Absolute names are rejected.
func JoinWithinBoundary(boundaryPath, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute path %q not allowed under %q", name, boundaryPath)
	}
	joined := filepath.Join(boundaryPath, name)
	if err := ValidatePathWithinBoundary(boundaryPath, joined); err != nil {
		return "", err
	}
	return joined, nil
}
