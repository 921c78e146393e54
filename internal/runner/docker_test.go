package runner

import (
	"context"
	"strings"
	"testing"
	"time"

	"codereviewer/internal/api"
	"codereviewer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLanguageImage(t *testing.T) {
	images := map[string]string{"python": "python:3.11-alpine"}

	assert.Equal(t, "python:3.11-alpine", getLanguageImage(images, api.Python))
	assert.Equal(t, "gcc:14", getLanguageImage(images, api.C))
	assert.Equal(t, "gcc:14", getLanguageImage(nil, api.CPP))
}

func TestGetCommand(t *testing.T) {
	cmd, env := getCommand(api.Python, "print('hi')")
	assert.Equal(t, []string{"python", "-c", "print('hi')"}, cmd)
	assert.Empty(t, env)

	cmd, env = getCommand(api.CPP, "int main() {}")
	require.Len(t, cmd, 3)
	assert.Equal(t, "sh", cmd[0])
	assert.Contains(t, cmd[2], "g++ /tmp/main.cpp -o /tmp/main")
	assert.Equal(t, []string{"SOURCE_CODE=int main() {}"}, env)

	cmd, _ = getCommand(api.C, "")
	assert.Contains(t, cmd[2], "gcc /tmp/main.c -o /tmp/main")
	assert.True(t, strings.HasSuffix(cmd[2], "exec /tmp/main\n"))
}

func TestContainerResult(t *testing.T) {
	res := containerResult(compileFailedMarker, "main.c:1: error: expected ';'", 1)
	assert.Equal(t, api.OutcomeCompileFailure, res.Outcome)
	assert.Equal(t, "Compilation Error:\nmain.c:1: error: expected ';'", res.Output)

	res = containerResult("ok\n", "", 0)
	assert.Equal(t, api.OutcomeSuccess, res.Outcome)
	assert.Equal(t, "ok\n", res.Output)

	res = containerResult("", "Traceback", 1)
	assert.Equal(t, api.OutcomeRuntimeFailure, res.Outcome)
	assert.Equal(t, "Traceback", res.Output)
}

func TestDockerRunPython(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping docker test in short mode")
	}

	dk, err := NewDocker(config.Default(), nil)
	require.NoError(t, err)
	defer dk.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := dk.Ping(ctx); err != nil {
		t.Skipf("docker not available: %v", err)
	}

	res := dk.Runner(api.Python).Run(ctx, `print("hello")`)
	assert.Equal(t, "hello\n", res.Output)
	assert.NoError(t, dk.CleanupAllContainers(ctx))
}
