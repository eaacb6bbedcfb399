package sandbox

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/client"
)

// DockerSandbox implements Executor using the Docker SDK. The working
// directory is bind-mounted into the container at /workspace and the command
// runs there, so file mutations made by the fix pipeline are visible to
// subsequent runs.
type DockerSandbox struct {
	client *client.Client
	image  string
}

// NewDockerSandbox creates a new Docker-based executor running commands in
// the given image.
func NewDockerSandbox(img string) (*DockerSandbox, error) {
	// Initializes client from standard environment variables (DOCKER_HOST, etc.)
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}
	return &DockerSandbox{client: cli, image: img}, nil
}

func mapToEnvList(m map[string]string) []string {
	var env []string
	for k, v := range m {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}

// Execute implements Executor.Execute by running one container to completion.
func (d *DockerSandbox) Execute(ctx context.Context, spec Spec) Result {
	if len(spec.Command) == 0 {
		return Result{ExitCode: 1, Stderr: "empty command"}
	}

	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Check if the image exists locally first to save time.
	if _, err := d.client.ImageInspect(ctx, d.image); err != nil {
		reader, err := d.client.ImagePull(ctx, d.image, image.PullOptions{})
		if err != nil {
			return Result{ExitCode: 1, Stderr: fmt.Sprintf("failed to pull image %s: %v", d.image, err)}
		}
		io.Copy(io.Discard, reader)
		reader.Close()
	}

	containerConfig := &container.Config{
		Image:      d.image,
		Cmd:        spec.Command,
		Env:        mapToEnvList(spec.Env),
		WorkingDir: "/workspace",
		Tty:        true,
	}
	hostConfig := &container.HostConfig{
		Mounts: []mount.Mount{{
			Type:   mount.TypeBind,
			Source: spec.Dir,
			Target: "/workspace",
		}},
	}

	created, err := d.client.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, "")
	if err != nil {
		return Result{ExitCode: 1, Stderr: fmt.Sprintf("failed to create container: %v", err)}
	}
	defer d.client.ContainerRemove(context.Background(), created.ID, container.RemoveOptions{Force: true})

	if err := d.client.ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return Result{ExitCode: 1, Stderr: fmt.Sprintf("failed to start container: %v", err)}
	}

	statusCh, errCh := d.client.ContainerWait(runCtx, created.ID, container.WaitConditionNotRunning)

	var exitCode int
	select {
	case err := <-errCh:
		if runCtx.Err() == context.DeadlineExceeded {
			d.stop(created.ID)
			return Result{ExitCode: 1, TimedOut: true, Stderr: fmt.Sprintf("command timed out after %s", timeout)}
		}
		return Result{ExitCode: 1, Stderr: fmt.Sprintf("container wait failed: %v", err)}
	case status := <-statusCh:
		exitCode = int(status.StatusCode)
	case <-runCtx.Done():
		d.stop(created.ID)
		return Result{ExitCode: 1, TimedOut: true, Stderr: fmt.Sprintf("command timed out after %s", timeout)}
	}

	// Tty containers produce one combined stream.
	out := d.logs(created.ID)
	return Result{ExitCode: exitCode, Stdout: out}
}

func (d *DockerSandbox) stop(containerID string) {
	timeOut := 5
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = d.client.ContainerStop(ctx, containerID, container.StopOptions{Timeout: &timeOut})
}

func (d *DockerSandbox) logs(containerID string) string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	reader, err := d.client.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return ""
	}
	defer reader.Close()
	data, _ := io.ReadAll(reader)
	return string(data)
}
