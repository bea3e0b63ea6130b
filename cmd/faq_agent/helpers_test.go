package main

import (
	"os"
	"path/filepath"
	"testing"
)

// getBinaryPath returns the path to the faq_agent binary for testing
func getBinaryPath(t *testing.T) string {
	binaryName := "faq_agent"
	if testing.Short() {
		t.Skip("Skipping CLI tests in short mode")
	}

	binaryPath := filepath.Join("..", "..", "bin", binaryName)
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skipf("Binary not found at %s, build it first with 'go build -o bin/faq_agent ./cmd/faq_agent'", binaryPath)
	}

	absPath, err := filepath.Abs(binaryPath)
	if err != nil {
		t.Fatalf("failed to resolve binary path: %v", err)
	}
	return absPath
}
