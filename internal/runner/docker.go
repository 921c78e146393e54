package runner

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"codereviewer/internal/api"
	"codereviewer/internal/config"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
)

const (
	managedLabel        = "codereview.managed"
	compileFailedMarker = "__CODEREVIEW_COMPILE_FAILED__"
)

// Docker runs code inside throwaway containers with networking disabled
// and a memory cap.
type Docker struct {
	cli      *client.Client
	images   map[string]string
	memoryMB int
	logger   *slog.Logger
}

func NewDocker(cfg config.Config, logger *slog.Logger) (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Docker{
		cli:      cli,
		images:   cfg.Images,
		memoryMB: cfg.MaxMemoryMB,
		logger:   logger,
	}, nil
}

func (d *Docker) Runner(lang api.Language) Runner {
	return RunnerFunc(func(ctx context.Context, source string) api.ExecutionResult {
		return d.run(ctx, lang, source)
	})
}

func (d *Docker) Close() error {
	return d.cli.Close()
}

func getLanguageImage(images map[string]string, lang api.Language) string {
	if img, ok := images[string(lang)]; ok && img != "" {
		return img
	}
	switch lang {
	case api.C, api.CPP:
		return "gcc:14"
	default:
		return "python:3.12-slim"
	}
}

// getCommand returns the container command. Compiled languages read the
// source from $SOURCE_CODE and print compileFailedMarker on stdout when the
// compiler rejects it.
func getCommand(lang api.Language, source string) (cmd []string, env []string) {
	switch lang {
	case api.C:
		return []string{"sh", "-c", compileScript("gcc", "/tmp/main.c")}, []string{"SOURCE_CODE=" + source}
	case api.CPP:
		return []string{"sh", "-c", compileScript("g++", "/tmp/main.cpp")}, []string{"SOURCE_CODE=" + source}
	default:
		return []string{"python", "-c", source}, nil
	}
}

func compileScript(compiler, srcPath string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "printf '%%s' \"$SOURCE_CODE\" > %s && unset SOURCE_CODE\n", srcPath)
	fmt.Fprintf(&b, "if ! %s %s -o /tmp/main 2>/tmp/compile.err; then\n", compiler, srcPath)
	fmt.Fprintf(&b, "  printf '%%s' '%s'\n", compileFailedMarker)
	b.WriteString("  cat /tmp/compile.err >&2\n")
	b.WriteString("  exit 1\n")
	b.WriteString("fi\n")
	b.WriteString("exec /tmp/main\n")
	return b.String()
}

func (d *Docker) ensureImage(ctx context.Context, imageName string) error {
	if _, err := d.cli.ImageInspect(ctx, imageName); err == nil {
		return nil
	}

	d.logger.Info("pulling image", "image", imageName)
	pull, err := d.cli.ImagePull(ctx, imageName, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image: %w", err)
	}
	defer pull.Close()
	_, err = io.Copy(io.Discard, pull)
	return err
}

func (d *Docker) run(ctx context.Context, lang api.Language, source string) api.ExecutionResult {
	imageName := getLanguageImage(d.images, lang)
	if err := d.ensureImage(ctx, imageName); err != nil {
		return launchError(err)
	}

	cmd, env := getCommand(lang, source)
	hostCfg := &container.HostConfig{NetworkMode: "none"}
	if d.memoryMB > 0 {
		hostCfg.Resources.Memory = int64(d.memoryMB) * 1024 * 1024
	}

	resp, err := d.cli.ContainerCreate(ctx, &container.Config{
		Image:           imageName,
		Cmd:             cmd,
		Env:             env,
		WorkingDir:      "/tmp",
		Tty:             false,
		AttachStdout:    true,
		AttachStderr:    true,
		NetworkDisabled: true,
		Labels:          map[string]string{managedLabel: "true"},
	}, hostCfg, nil, nil, "codereview-"+uuid.NewString())
	if err != nil {
		return launchError(fmt.Errorf("failed to create container: %w", err))
	}
	defer func() {
		if err := d.cli.ContainerRemove(context.Background(), resp.ID, container.RemoveOptions{Force: true}); err != nil {
			d.logger.Warn("failed to remove container", "id", resp.ID, "error", err)
		}
	}()

	attachResp, err := d.cli.ContainerAttach(ctx, resp.ID, container.AttachOptions{
		Stream: true,
		Stdout: true,
		Stderr: true,
	})
	if err != nil {
		return launchError(fmt.Errorf("failed to attach to container: %w", err))
	}
	defer attachResp.Close()

	var stdout, stderr bytes.Buffer
	copied := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&stdout, &stderr, attachResp.Reader)
		copied <- err
	}()

	if err := d.cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return launchError(fmt.Errorf("failed to start container: %w", err))
	}

	var exitCode int
	statusCh, errCh := d.cli.ContainerWait(ctx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		return launchError(fmt.Errorf("error waiting for container: %w", err))
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	}

	if err := <-copied; err != nil {
		return launchError(fmt.Errorf("failed to read container output: %w", err))
	}

	return containerResult(stdout.String(), stderr.String(), exitCode)
}

func containerResult(stdout, stderr string, exitCode int) api.ExecutionResult {
	if stdout == compileFailedMarker {
		return compileFailure(stderr, exitCode)
	}
	return programResult(stdout, stderr, exitCode)
}

// CleanupAllContainers removes every container this package created that is
// still around, e.g. after an interrupted run.
func (d *Docker) CleanupAllContainers(ctx context.Context) error {
	list, err := d.cli.ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("label", managedLabel+"=true")),
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}
	for _, c := range list {
		if err := d.cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			return fmt.Errorf("failed to remove container %s: %w", c.ID, err)
		}
	}
	return nil
}

// Ping reports whether the docker daemon is reachable.
func (d *Docker) Ping(ctx context.Context) error {
	_, err := d.cli.Ping(ctx)
	return err
}
