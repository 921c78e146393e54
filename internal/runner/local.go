package runner

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"codereviewer/internal/api"
)

// Interpreted runs source as an inline program: <Interpreter> -c <source>.
type Interpreted struct {
	Interpreter string
}

func (r Interpreted) Run(ctx context.Context, source string) api.ExecutionResult {
	stdout, stderr, code, err := capture(ctx, r.Interpreter, "-c", source)
	if err != nil {
		return launchError(err)
	}
	return programResult(stdout, stderr, code)
}

// Compiled writes source to a temp file, builds it with Compiler and runs
// the produced binary. Both files are removed before Run returns.
type Compiled struct {
	Compiler string
	Suffix   string
	// TempDir defaults to os.TempDir when empty.
	TempDir string
}

func (r Compiled) Run(ctx context.Context, source string) api.ExecutionResult {
	srcPath, err := r.writeSource(source)
	if err != nil {
		return launchError(err)
	}
	defer os.Remove(srcPath)

	binPath := binaryPath(srcPath, r.Suffix)
	defer removeIfExists(binPath)

	_, compileStderr, code, err := capture(ctx, r.Compiler, srcPath, "-o", binPath)
	if err != nil {
		return launchError(err)
	}
	if code != 0 {
		return compileFailure(compileStderr, code)
	}

	stdout, stderr, code, err := capture(ctx, binPath)
	if err != nil {
		return launchError(err)
	}
	return programResult(stdout, stderr, code)
}

func (r Compiled) writeSource(source string) (string, error) {
	f, err := os.CreateTemp(r.TempDir, "codereview-*"+r.Suffix)
	if err != nil {
		return "", fmt.Errorf("creating source file: %w", err)
	}

	if _, err := f.WriteString(source); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing source file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing source file: %w", err)
	}
	return f.Name(), nil
}

func binaryPath(srcPath, suffix string) string {
	bin := strings.TrimSuffix(srcPath, suffix)
	if runtime.GOOS == "windows" {
		bin += ".exe"
	}
	return bin
}

func removeIfExists(path string) {
	if _, err := os.Stat(path); err == nil {
		os.Remove(path)
	}
}
