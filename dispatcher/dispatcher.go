// Package dispatcher runs the interactive command loop of ledgerctl.
//
// Each command collects its fields from a Prompter, sends one request through a Caller
// and renders the node's answer. Input that fails validation is re-prompted field by
// field; failures after that (file, network, decryptor) are shown to the operator and the
// dispatcher goes back to Idle. Nothing is retried.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"ledger-rpc/codec"
	"ledger-rpc/message"
)

// ErrExit is returned by Dispatch for the exit command.
var ErrExit = errors.New("exit requested")

// Caller sends one request and returns the node's response.
type Caller interface {
	Call(ctx context.Context, req message.Request) (*message.Response, error)
}

// Decrypter turns an output ciphertext into plaintext using the given key file.
type Decrypter interface {
	Decrypt(ctx context.Context, ciphertext, keyFile string) (string, error)
}

// Config wires a Dispatcher. Caller, Decrypter, Prompter and Out are required.
type Config struct {
	Caller    Caller
	Decrypter Decrypter
	Prompter  Prompter
	Out       io.Writer
	Logger    *zap.Logger

	// ShowMenu prints the command list before every prompt.
	ShowMenu bool
	// OnState, if set, observes every state change.
	OnState func(State)
}

type command func(ctx context.Context, d *Dispatcher) error

const cmdExit = "exit"

// commandNames is the menu order.
var commandNames = []string{"hello", "transaction", "computation", "output", cmdExit}

type Dispatcher struct {
	cfg      Config
	logger   *zap.Logger
	render   codec.Codec
	commands map[string]command
	state    State
}

func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		cfg:    cfg,
		logger: logger,
		render: &codec.JSONCodec{},
		commands: map[string]command{
			"hello":       sendHello,
			"transaction": sendTransaction,
			"computation": sendComputation,
			"output":      sendOutput,
		},
	}
}

// State returns the current state. It is Idle between commands.
func (d *Dispatcher) State() State { return d.state }

// Run prints the menu, reads command names and dispatches them until exit, end of input
// or ctx is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		if d.cfg.ShowMenu {
			fmt.Fprintln(d.cfg.Out, "\nAvailable commands:")
			for _, name := range commandNames {
				fmt.Fprintf(d.cfg.Out, " - %s\n", name)
			}
		}

		line, err := d.cfg.Prompter.Prompt(ctx, "\nEnter a command: ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch err := d.Dispatch(ctx, line); {
		case err == nil:
		case errors.Is(err, ErrExit), errors.Is(err, io.EOF):
			return nil
		default:
			return err
		}
	}
}

// Dispatch runs the command called name. Unknown names print an error and do nothing
// else. Only input failures are returned; everything else is rendered.
func (d *Dispatcher) Dispatch(ctx context.Context, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == cmdExit {
		fmt.Fprintln(d.cfg.Out, "Exiting the terminal UI.")
		return ErrExit
	}

	cmd, ok := d.commands[name]
	if !ok {
		fmt.Fprintln(d.cfg.Out, "Invalid input. Please enter a valid command.")
		return nil
	}

	d.setState(AwaitingInput)
	defer d.setState(Idle)
	d.logger.Debug("command started", zap.String("command", name))
	return cmd(ctx, d)
}

func (d *Dispatcher) setState(s State) {
	if d.state == s {
		return
	}
	d.logger.Debug("state", zap.Stringer("from", d.state), zap.Stringer("to", s))
	d.state = s
	if d.cfg.OnState != nil {
		d.cfg.OnState(s)
	}
}

// send moves to InFlight for the round trip and to Rendering once it has an outcome.
// A transport failure is rendered here and reported as a nil response.
func (d *Dispatcher) send(ctx context.Context, req message.Request) *message.Response {
	d.setState(InFlight)
	resp, err := d.cfg.Caller.Call(ctx, req)
	d.setState(Rendering)
	if err != nil {
		d.logger.Info("request failed", zap.Stringer("request", req.Type()), zap.Error(err))
		fmt.Fprintf(d.cfg.Out, "Request failed: %v\n", err)
		return nil
	}
	return resp
}

func (d *Dispatcher) printResponse(resp *message.Response) {
	body, err := d.render.Encode(resp)
	if err != nil {
		fmt.Fprintf(d.cfg.Out, "Server response: status %d\n", resp.Status)
		return
	}
	fmt.Fprintf(d.cfg.Out, "Server response: %s\n", body)
}
