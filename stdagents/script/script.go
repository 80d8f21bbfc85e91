// Package script implements askit_script_run: runs a short script in an
// ephemeral Docker container. The single input port carries the script
// body; the single output port carries captured stdout.
//
// Grounded on the code-execution shape of the teacher's sandboxed code
// runner, reframed as a dataflow node backed directly by the Docker
// Engine API instead of an HTTP sidecar.
package script

import (
	"bytes"
	"context"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"github.com/go-askit/askit"
)

const (
	defName = "askit_script_run"

	portIn  = "script"
	portOut = "stdout"

	configImage       = "image"
	configInterpreter = "interpreter"
)

// Register adds the askit_script_run definition to kit. NativeThread is
// true: container I/O blocks its own OS thread, never the cooperative
// runtime (§4.2).
func Register(kit *askit.ASKit) {
	kit.RegisterAgent(askit.AgentDefinition{
		Kind:         "agent",
		Name:         defName,
		Title:        "Run Script",
		Category:     "Core/Execute",
		Inputs:       []string{portIn},
		Outputs:      []string{portOut},
		NativeThread: true,
		DefaultConfig: askit.NewConfigSchema([]string{configImage, configInterpreter}, map[string]askit.ConfigEntry{
			configImage:       {Value: askit.StringValue("python:3.12-slim"), Title: "Image"},
			configInterpreter: {Value: askit.StringValue("python3"), Title: "Interpreter"},
		}),
		Factory: newAgent,
	})
}

type scriptAgent struct {
	kit *askit.ASKit
	id  string

	image       string
	interpreter string

	cli *client.Client
}

func newAgent(kit *askit.ASKit, id, defName string, config *askit.Config) (askit.Agent, error) {
	a := &scriptAgent{kit: kit, id: id, image: "python:3.12-slim", interpreter: "python3"}
	if err := a.SetConfig(config); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *scriptAgent) Start() error {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return &askit.Error{Kind: askit.KindIoError, Subject: a.id, Message: "connect to docker", Err: err}
	}
	a.cli = cli
	return nil
}

func (a *scriptAgent) Stop() error {
	if a.cli == nil {
		return nil
	}
	err := a.cli.Close()
	a.cli = nil
	return err
}

func (a *scriptAgent) SetConfig(cfg *askit.Config) error {
	if v, ok := cfg.Get(configImage); ok {
		if s, ok := v.String(); ok && s != "" {
			a.image = s
		}
	}
	if v, ok := cfg.Get(configInterpreter); ok {
		if s, ok := v.String(); ok && s != "" {
			a.interpreter = s
		}
	}
	return nil
}

func (a *scriptAgent) Process(ctx askit.Context, port string, data askit.Data) error {
	body, ok := data.Value.String()
	if !ok {
		return &askit.Error{Kind: askit.KindInvalidValue, Subject: a.id, Message: "script body is not a string"}
	}

	bgCtx := context.Background()

	resp, err := a.cli.ContainerCreate(bgCtx,
		&container.Config{
			Image:        a.image,
			Cmd:          []string{a.interpreter, "-c", body},
			AttachStdout: true,
			AttachStderr: true,
		},
		&container.HostConfig{
			NetworkMode:  "none",
			PortBindings: nat.PortMap{},
			AutoRemove:   false,
		},
		nil, nil, "",
	)
	if err != nil {
		return &askit.Error{Kind: askit.KindIoError, Subject: a.id, Message: "create container", Err: err}
	}
	defer a.cli.ContainerRemove(bgCtx, resp.ID, container.RemoveOptions{Force: true})

	if err := a.cli.ContainerStart(bgCtx, resp.ID, container.StartOptions{}); err != nil {
		return &askit.Error{Kind: askit.KindIoError, Subject: a.id, Message: "start container", Err: err}
	}

	waitCh, errCh := a.cli.ContainerWait(bgCtx, resp.ID, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return &askit.Error{Kind: askit.KindIoError, Subject: a.id, Message: "wait for container", Err: err}
		}
	case <-waitCh:
	}

	out, err := a.cli.ContainerLogs(bgCtx, resp.ID, container.LogsOptions{ShowStdout: true, ShowStderr: true})
	if err != nil {
		return &askit.Error{Kind: askit.KindIoError, Subject: a.id, Message: "read container logs", Err: err}
	}
	defer out.Close()

	var buf, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, &stderr, out); err != nil {
		return &askit.Error{Kind: askit.KindIoError, Subject: a.id, Message: "demux container logs", Err: err}
	}

	outData := askit.NewData(askit.StringValue(buf.String()))
	return a.kit.TryOutput(a.id, ctx.WithPort(portOut), outData)
}
