package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"codereviewer/internal/api"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().StringP("lang", "l", "", "")
	cmd.Flags().StringP("code", "c", "", "")
	return cmd
}

func TestResolveLanguage(t *testing.T) {
	tests := []struct {
		flag     string
		filename string
		want     api.Language
		wantErr  bool
	}{
		{"", "main.py", api.Python, false},
		{"", "main.c", api.C, false},
		{"", "main.cc", api.CPP, false},
		{"python", "main.c", api.Python, false},
		{"", "main.rs", "", true},
		{"", "", "", true},
		{"rust", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.flag+"/"+tt.filename, func(t *testing.T) {
			cmd := newFlagCmd()
			if tt.flag != "" {
				require.NoError(t, cmd.Flags().Set("lang", tt.flag))
			}

			got, err := resolveLanguage(cmd, tt.filename)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadSource(t *testing.T) {
	cmd := newFlagCmd()
	require.NoError(t, cmd.Flags().Set("code", "print(1)"))

	src, name, err := readSource(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "print(1)", src)
	assert.Empty(t, name)

	path := filepath.Join(t.TempDir(), "hello.c")
	require.NoError(t, os.WriteFile(path, []byte("int main(void){}"), 0o644))

	src, name, err = readSource(newFlagCmd(), []string{path})
	require.NoError(t, err)
	assert.Equal(t, "int main(void){}", src)
	assert.Equal(t, path, name)

	_, _, err = readSource(newFlagCmd(), []string{filepath.Join(t.TempDir(), "nope.c")})
	assert.Error(t, err)
}

func TestReadSourceFromCommandInput(t *testing.T) {
	cmd := newFlagCmd()
	cmd.SetIn(strings.NewReader("print('piped')\n"))

	src, name, err := readSource(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, "print('piped')\n", src)
	assert.Empty(t, name)
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(strings.NewReader("x")))

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	require.NoError(t, err)
	defer f.Close()
	assert.False(t, isTerminal(f))
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"version"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "codereviewer version "+version+"\n", out.String())
}

func TestRunCommand(t *testing.T) {
	python, err := exec.LookPath("python3")
	if err != nil {
		if python, err = exec.LookPath("python"); err != nil {
			t.Skip("python not found in PATH")
		}
	}
	t.Setenv("CODEREVIEW_PYTHON", python)
	t.Setenv("CODEREVIEW_CONFIG", "")
	t.Setenv("CODEREVIEW_RUNTIME", "")
	t.Setenv("CODEREVIEW_LOG_LEVEL", "error")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"run", "-l", "python", "-c", "print(6 * 7)"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Equal(t, "42\n", out.String())
	assert.Zero(t, exitCode)
}
