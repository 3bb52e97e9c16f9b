package backend

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"
)

func init() {
	Register("docker", NewDocker)
}

// dockerAdapter runs each "child" as a container instead of a local OS
// process. It implements Terminator: termination delegates to the Docker
// daemon's own ContainerStop graceful-timeout-then-kill behavior, the same
// division of responsibility as the process-group adapter.
type dockerAdapter struct {
	mu     sync.Mutex
	client *client.Client
}

// NewDocker constructs the container-backed adapter. The client connects
// lazily on first Start.
func NewDocker() Adapter { return &dockerAdapter{} }

func (a *dockerAdapter) getClient() (*client.Client, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return a.client, nil
	}
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, err
	}
	a.client = cli
	return cli, nil
}

type dockerHandle struct {
	cli  *client.Client
	id   string
	pid  int
	out  Streams
	done chan struct{}
	once sync.Once
}

// Start creates and starts a container. extra["image"] is required;
// extra["ports"] ([]string, "host:container/proto") is optional.
func (a *dockerAdapter) Start(ctx context.Context, cmdline []string, extra map[string]any) (Handle, error) {
	cli, err := a.getClient()
	if err != nil {
		return nil, &ErrSpawnFailed{Cmdline: cmdline, Err: err}
	}

	image, _ := extra["image"].(string)
	if image == "" {
		return nil, &ErrSpawnFailed{Cmdline: cmdline, Err: fmt.Errorf("backend: docker adapter requires extra[\"image\"]")}
	}

	exposed, bindings, err := parsePorts(extra)
	if err != nil {
		return nil, &ErrSpawnFailed{Cmdline: cmdline, Err: err}
	}

	cfg := &container.Config{
		Image:        image,
		Cmd:          cmdline,
		ExposedPorts: exposed,
	}
	hostCfg := &container.HostConfig{PortBindings: bindings}

	created, err := cli.ContainerCreate(ctx, cfg, hostCfg, &network.NetworkingConfig{}, nil, "")
	if err != nil {
		return nil, &ErrSpawnFailed{Cmdline: cmdline, Err: err}
	}
	if err := cli.ContainerStart(ctx, created.ID, types.ContainerStartOptions{}); err != nil {
		return nil, &ErrSpawnFailed{Cmdline: cmdline, Err: err}
	}

	stdout, stderr := containerLogStreams(ctx, cli, created.ID)

	h := &dockerHandle{
		cli:  cli,
		id:   created.ID,
		out:  Streams{Stdout: stdout, Stderr: stderr},
		done: make(chan struct{}),
	}
	go h.waitExit(ctx)

	if inspect, err := cli.ContainerInspect(ctx, created.ID); err == nil {
		h.pid = inspect.State.Pid
	}

	return h, nil
}

func (h *dockerHandle) waitExit(ctx context.Context) {
	statusCh, errCh := h.cli.ContainerWait(ctx, h.id, container.WaitConditionNotRunning)
	select {
	case <-statusCh:
	case <-errCh:
	case <-ctx.Done():
	}
	close(h.done)
}

func (a *dockerAdapter) Pid(h Handle) int { return h.(*dockerHandle).pid }

func (a *dockerAdapter) IsTerminated(h Handle) bool {
	dh := h.(*dockerHandle)
	select {
	case <-dh.done:
		return true
	default:
		return false
	}
}

func (a *dockerAdapter) Close(h Handle) error {
	dh := h.(*dockerHandle)
	var err error
	dh.once.Do(func() {
		err = dh.cli.ContainerRemove(context.Background(), dh.id, types.ContainerRemoveOptions{Force: true})
	})
	return err
}

func (a *dockerAdapter) Wait(h Handle) error {
	dh := h.(*dockerHandle)
	<-dh.done
	return nil
}

func (a *dockerAdapter) Streams(h Handle) Streams { return h.(*dockerHandle).out }

// Terminate asks the daemon to stop the container, which sends SIGTERM and
// escalates to SIGKILL after its own timeout — the backend's own
// escalation, per the "process-group" division of responsibility.
func (a *dockerAdapter) Terminate(ctx context.Context, h Handle) error {
	dh := h.(*dockerHandle)
	timeout := 10
	return dh.cli.ContainerStop(ctx, dh.id, container.StopOptions{Timeout: &timeout})
}

func parsePorts(extra map[string]any) (nat.PortSet, nat.PortMap, error) {
	raw, ok := extra["ports"].([]string)
	if !ok || len(raw) == 0 {
		return nil, nil, nil
	}
	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, spec := range raw {
		portBindings, err := nat.ParsePortSpec(spec)
		if err != nil {
			return nil, nil, fmt.Errorf("backend: parse port %q: %w", spec, err)
		}
		for _, pb := range portBindings {
			exposed[pb.Port] = struct{}{}
			bindings[pb.Port] = append(bindings[pb.Port], pb.Binding)
		}
	}
	return exposed, bindings, nil
}

func containerLogStreams(ctx context.Context, cli *client.Client, id string) (io.Reader, io.Reader) {
	outR, outW := io.Pipe()
	errR, errW := io.Pipe()
	go func() {
		logs, err := cli.ContainerLogs(ctx, id, types.ContainerLogsOptions{ShowStdout: true, ShowStderr: true, Follow: true})
		if err != nil {
			_ = outW.CloseWithError(err)
			_ = errW.CloseWithError(err)
			return
		}
		defer logs.Close()
		_, _ = stdcopy.StdCopy(outW, errW, logs)
		_ = outW.Close()
		_ = errW.Close()
	}()
	return outR, errR
}

var _ Adapter = (*dockerAdapter)(nil)
var _ Terminator = (*dockerAdapter)(nil)
