package utils

import "testing"

func TestUploadGateScriptsCompile(t *testing.T) {
	// Compile-time smoke test: scripts should be initialized.
	if uploadGateAcquireScript == nil || uploadGateReleaseScript == nil {
		t.Fatalf("expected scripts to be initialized")
	}
}
