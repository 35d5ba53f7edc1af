package pipeline

import (
	"strings"
	"testing"
)

func TestStripArtifactHeader(t *testing.T) {
	text := "Classic Hunt LLM Summary - 29. 8. 2026 14:00:00\nModel: mistral\n" +
		strings.Repeat("=", 60) + "\n\nThe actual summary body.\nSecond line."

	got := stripArtifactHeader(text)
	if got != "The actual summary body.\nSecond line." {
		t.Errorf("stripArtifactHeader = %q", got)
	}
}

func TestStripArtifactHeaderWithoutRule(t *testing.T) {
	text := "plain body with no header"
	if got := stripArtifactHeader(text); got != text {
		t.Errorf("text without a rule must pass through: %q", got)
	}
}
