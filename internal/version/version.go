// Package version centralizes the versioning of the gateway's logical
// components for cache-key construction. Bumping a component version changes
// every cache key that embeds it, which invalidates stale cached answers
// without touching Redis directly.
package version

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// ComponentVersions holds the version strings for the parts of the gateway
// whose changes should invalidate cached answers. Increment the relevant
// entry before deploying a change to that component.
var ComponentVersions = struct {
	// Tools should be bumped when the declared tool catalog changes, since
	// the catalog influences whether the model answers directly.
	Tools string

	// PromptLogic should be bumped when the prompt construction or the
	// model configuration changes.
	PromptLogic string
}{
	Tools:       "v1.0",
	PromptLogic: "v1.0",
}

// GenerateVersionedCacheKey builds a stable cache key from a prefix, a
// SHA-256 of the prompt, and the current component versions.
//
// Example output: "llmcache:a1b2c3d4...:tv1.0_pv1.0"
func GenerateVersionedCacheKey(prefix, prompt string) string {
	hasher := sha256.New()
	hasher.Write([]byte(prompt))
	promptHash := hex.EncodeToString(hasher.Sum(nil))

	versionString := fmt.Sprintf("t%s_p%s", ComponentVersions.Tools, ComponentVersions.PromptLogic)
	return fmt.Sprintf("%s:%s:%s", prefix, promptHash, versionString)
}
