package version

import (
	"strings"
	"testing"
)

func TestGenerateVersionedCacheKey(t *testing.T) {
	first := GenerateVersionedCacheKey("llmcache", "Do I have any meetings tomorrow?")
	second := GenerateVersionedCacheKey("llmcache", "Do I have any meetings tomorrow?")
	if first != second {
		t.Fatalf("key not stable: %q vs %q", first, second)
	}

	other := GenerateVersionedCacheKey("llmcache", "a different prompt")
	if first == other {
		t.Fatal("different prompts produced the same key")
	}

	if !strings.HasPrefix(first, "llmcache:") {
		t.Fatalf("key missing prefix: %q", first)
	}
	if !strings.HasSuffix(first, "t"+ComponentVersions.Tools+"_p"+ComponentVersions.PromptLogic) {
		t.Fatalf("key missing version suffix: %q", first)
	}
}
