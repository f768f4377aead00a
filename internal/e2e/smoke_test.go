package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSmokeFlow(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)

	stdout, stderr, err := runRFN(t, binaryPath, home, "version")
	require.NoError(t, err, "stderr: %s", stderr)
	assert.NotEmpty(t, strings.TrimSpace(stdout))

	_, _, err = runRFN(t, binaryPath, home, "session", "status", "missing-session")
	require.Error(t, err)

	_, stderr, err = runRFN(t, binaryPath, home, "refine", "ceramic vase")
	require.Error(t, err)
	assert.Contains(t, stderr, "generation.openai_api_key")
}

func TestSmokeRejectsBadConfig(t *testing.T) {
	home := t.TempDir()
	binaryPath := buildBinary(t)
	require.NoError(t, writeConfigFixture(home, "[records]\nbackend = \"cassandra\"\n"))

	_, stderr, err := runRFN(t, binaryPath, home, "job", "status", "job-1")
	require.Error(t, err)
	assert.Contains(t, stderr, `unsupported records backend "cassandra"`)
}

func buildBinary(t *testing.T) string {
	t.Helper()

	binaryPath := filepath.Join(t.TempDir(), "rfn-e2e")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/rfn")
	cmd.Dir = repoRoot(t)

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "build rfn binary: %s", string(output))
	return binaryPath
}

func runRFN(t *testing.T, binaryPath, home string, args ...string) (string, string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(filteredEnv(), "HOME="+home)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// filteredEnv drops RFN_ settings from the developer's shell.
func filteredEnv() []string {
	var env []string
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, "RFN_") {
			env = append(env, kv)
		}
	}
	return env
}

func repoRoot(t *testing.T) string {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(wd, "..", ".."))
}

func writeConfigFixture(home, body string) error {
	configDir := filepath.Join(home, ".config", "rfn")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(configDir, "config.toml"), []byte(body), 0o644)
}
