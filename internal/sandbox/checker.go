package sandbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/google/uuid"
)

// Checker validates a submitted solution for a challenge. The correctness
// policy itself is outside the core: implementations only report
// pass/fail plus a message for the student.
type Checker interface {
	Check(ctx context.Context, challengeID, code string) (bool, string, error)
}

// SolutionMarker is the token a passing submission must contain when the
// marker checker is active.
const SolutionMarker = "expected_solution"

// MarkerChecker is the MVP checker: a submission passes when it contains
// the expected marker token. Good enough for early challenges where the
// platform seeds the marker through the exercise itself.
type MarkerChecker struct{}

// Check reports whether the code carries the solution marker
func (MarkerChecker) Check(_ context.Context, _ string, code string) (bool, string, error) {
	if strings.Contains(code, SolutionMarker) {
		return true, "Challenge passed!", nil
	}
	return false, "Incorrect solution. Try again!", nil
}

// DockerChecker runs the submission inside a short-lived container built
// for the challenge. Exit code zero is a pass; the container's output
// becomes the message shown to the student.
type DockerChecker struct {
	docker  *client.Client
	image   string
	timeout time.Duration
}

// NewDockerChecker creates a checker against the given Docker host
func NewDockerChecker(host, image string, timeout time.Duration) (*DockerChecker, error) {
	cli, err := client.NewClientWithOpts(
		client.WithHost(host),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create docker client: %w", err)
	}

	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &DockerChecker{
		docker:  cli,
		image:   image,
		timeout: timeout,
	}, nil
}

// Check runs the submission and waits for the verdict
func (c *DockerChecker) Check(ctx context.Context, challengeID, code string) (bool, string, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	name := "check-" + uuid.New().String()[:12]

	containerConfig := &container.Config{
		Image: c.image,
		Env: []string{
			"CHALLENGE_ID=" + challengeID,
			"SUBMISSION=" + code,
		},
		Labels: map[string]string{
			"mentor.challenge": challengeID,
			"mentor.managed":   "true",
		},
	}

	hostConfig := &container.HostConfig{
		AutoRemove: false,
		RestartPolicy: container.RestartPolicy{
			Name: container.RestartPolicyDisabled,
		},
	}

	resp, err := c.docker.ContainerCreate(runCtx, containerConfig, hostConfig, &network.NetworkingConfig{}, nil, name)
	if err != nil {
		return false, "", fmt.Errorf("failed to create checker container: %w", err)
	}
	defer c.remove(resp.ID)

	if err := c.docker.ContainerStart(runCtx, resp.ID, container.StartOptions{}); err != nil {
		return false, "", fmt.Errorf("failed to start checker container: %w", err)
	}

	statusCh, errCh := c.docker.ContainerWait(runCtx, resp.ID, container.WaitConditionNotRunning)

	var exitCode int64
	select {
	case err := <-errCh:
		if err != nil {
			return false, "", fmt.Errorf("failed waiting for checker: %w", err)
		}
	case status := <-statusCh:
		exitCode = status.StatusCode
	case <-runCtx.Done():
		return false, "", fmt.Errorf("checker timed out after %s", c.timeout)
	}

	message := c.tailLogs(runCtx, resp.ID)
	if message == "" {
		if exitCode == 0 {
			message = "Challenge passed!"
		} else {
			message = "Incorrect solution. Try again!"
		}
	}

	return exitCode == 0, message, nil
}

// Ping checks Docker connectivity
func (c *DockerChecker) Ping(ctx context.Context) error {
	if _, err := c.docker.Ping(ctx); err != nil {
		return fmt.Errorf("docker ping failed: %w", err)
	}
	return nil
}

// Close closes the Docker client
func (c *DockerChecker) Close() error {
	return c.docker.Close()
}

func (c *DockerChecker) tailLogs(ctx context.Context, containerID string) string {
	logs, err := c.docker.ContainerLogs(ctx, containerID, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Tail:       "20",
	})
	if err != nil {
		slog.Warn("failed to read checker logs", "error", err, "container", containerID)
		return ""
	}
	defer logs.Close()

	data, err := io.ReadAll(io.LimitReader(logs, 8192))
	if err != nil {
		slog.Warn("failed to read checker log stream", "error", err)
		return ""
	}

	return strings.TrimSpace(string(data))
}

func (c *DockerChecker) remove(containerID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.docker.ContainerRemove(ctx, containerID, container.RemoveOptions{Force: true}); err != nil {
		slog.Warn("failed to remove checker container", "error", err, "container", containerID)
	}
}
