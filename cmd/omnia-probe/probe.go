// ABOUTME: Interactive Converse stream driver for the probe client
// ABOUTME: Pumps server frames and stdin concurrently, relaying tool calls to the executor

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"

	"github.com/AltairaLabs/omnia-runtime/internal/tools"
	omnia "github.com/AltairaLabs/omnia-runtime/proto/omnia"
)

// maxMessageBytes matches the runtime's frame cap.
const maxMessageBytes = 50 * 1024 * 1024

// Probe drives one conversation session against a runtime.
type Probe struct {
	cfg       *Config
	logger    *slog.Logger
	catalog   *tools.Catalog
	executor  *Executor
	sessionID string
}

// NewProbe loads the tool catalog and fixes the session identity.
func NewProbe(cfg *Config, logger *slog.Logger) (*Probe, error) {
	sessionID := cfg.Session.ID
	if sessionID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return nil, fmt.Errorf("generating session id: %w", err)
		}
		sessionID = "probe-" + id
	}

	catalog := tools.Empty()
	if cfg.Tools.Path != "" {
		var err error
		catalog, err = tools.Load(cfg.Tools.Path)
		if err != nil {
			return nil, fmt.Errorf("loading tools: %w", err)
		}
	}

	return &Probe{
		cfg:       cfg,
		logger:    logger,
		catalog:   catalog,
		executor:  NewExecutor(catalog, logger),
		sessionID: sessionID,
	}, nil
}

// Run connects, opens the Converse stream, and serves the REPL until the
// user quits or the context is canceled.
func (p *Probe) Run(ctx context.Context) error {
	conn, err := grpc.NewClient(p.cfg.Server.Address,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(maxMessageBytes)),
	)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", p.cfg.Server.Address, err)
	}
	defer conn.Close()

	if p.cfg.Server.AuthToken != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+p.cfg.Server.AuthToken)
	}

	client := omnia.NewRuntimeClient(conn)

	health, err := client.Health(ctx, &omnia.HealthRequest{})
	if err != nil {
		return fmt.Errorf("runtime unreachable: %w", err)
	}
	gray := color.New(color.FgHiBlack)
	gray.Printf("    runtime status: %s\n\n", health.Status)

	stream, err := client.Converse(ctx)
	if err != nil {
		return fmt.Errorf("opening stream: %w", err)
	}

	fmt.Println("Type a message and press Enter. /help for commands. Ctrl+C to quit.")
	fmt.Println()

	frames := make(chan *omnia.ServerMessage, 16)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(frames)
		return p.recvLoop(gctx, stream, frames)
	})
	g.Go(func() error {
		defer stream.CloseSend()
		return p.inputLoop(gctx, stream, frames)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Println("\nGoodbye!")
	return nil
}

// recvLoop pumps server frames into the channel until the stream ends.
func (p *Probe) recvLoop(ctx context.Context, stream omnia.Runtime_ConverseClient, frames chan<- *omnia.ServerMessage) error {
	for {
		frame, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("receiving frame: %w", err)
		}

		select {
		case frames <- frame:
		case <-ctx.Done():
			return nil
		}
	}
}

// inputLoop reads stdin lines, sends user turns, and waits out each turn's
// frame sequence before prompting again.
func (p *Probe) inputLoop(ctx context.Context, stream omnia.Runtime_ConverseClient, frames <-chan *omnia.ServerMessage) error {
	scanner := bufio.NewScanner(os.Stdin)
	promptColor := color.New(color.FgGreen)

	for {
		promptColor.Print("> ")

		input, err := readLine(ctx, scanner)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if input == "/quit" || input == "/exit" || input == "/q" {
			return nil
		}
		if input == "/tools" {
			p.printTools()
			fmt.Println()
			continue
		}
		if input == "/help" {
			printHelp()
			fmt.Println()
			continue
		}

		if err := stream.Send(&omnia.ClientMessage{
			Msg: &omnia.ClientMessage_Turn{
				Turn: &omnia.UserTurn{
					SessionId: p.sessionID,
					Content:   input,
				},
			},
		}); err != nil {
			return fmt.Errorf("sending turn: %w", err)
		}

		if err := p.awaitTurn(ctx, stream, frames); err != nil {
			return err
		}
	}
}

// readLine reads one stdin line without blocking shutdown.
func readLine(ctx context.Context, scanner *bufio.Scanner) (string, error) {
	inputCh := make(chan string, 1)
	errCh := make(chan error, 1)

	go func() {
		if scanner.Scan() {
			inputCh <- scanner.Text()
		} else if err := scanner.Err(); err != nil {
			errCh <- err
		} else {
			errCh <- io.EOF
		}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case err := <-errCh:
		return "", err
	case input := <-inputCh:
		return input, nil
	}
}

// awaitTurn consumes frames for one turn: chunks print as they stream, tool
// calls execute and answer inline, Done or Error ends the turn.
func (p *Probe) awaitTurn(ctx context.Context, stream omnia.Runtime_ConverseClient, frames <-chan *omnia.ServerMessage) error {
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	for {
		var frame *omnia.ServerMessage
		select {
		case <-ctx.Done():
			return nil
		case f, ok := <-frames:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("stream closed before turn completed")
			}
			frame = f
		}

		switch {
		case frame.GetChunk() != nil:
			fmt.Print(frame.GetChunk().Content)

		case frame.GetToolCall() != nil:
			call := frame.GetToolCall()
			yellow.Printf("\n[tool] %s %s\n", call.Name, truncate(call.Arguments, 80))

			result, isErr := p.execute(ctx, call)
			if isErr {
				red.Printf("[tool error] %s\n", truncate(result, 120))
			} else {
				gray.Printf("[tool done] %s\n", truncate(result, 80))
			}

			if err := stream.Send(&omnia.ClientMessage{
				Msg: &omnia.ClientMessage_ToolResult{
					ToolResult: &omnia.ToolResult{
						Id:      call.Id,
						Result:  result,
						IsError: isErr,
					},
				},
			}); err != nil {
				return fmt.Errorf("sending tool result: %w", err)
			}

		case frame.GetDone() != nil:
			done := frame.GetDone()
			fmt.Println()
			if u := done.Usage; u != nil {
				gray.Printf("[%d in / %d out / $%.4f]\n", u.InputTokens, u.OutputTokens, u.CostUsd)
			}
			fmt.Println()
			return nil

		case frame.GetError() != nil:
			e := frame.GetError()
			red.Printf("\n[error %s] %s\n\n", e.Code, e.Message)
			return nil
		}
	}
}

// execute runs one tool call; failures become error results for the runtime
// rather than probe exits.
func (p *Probe) execute(ctx context.Context, call *omnia.ToolCall) (string, bool) {
	result, err := p.executor.Execute(ctx, call.Name, call.Arguments)
	if err != nil {
		p.logger.Error("tool execution failed", "tool", call.Name, "error", err)
		return err.Error(), true
	}
	return result, false
}

func (p *Probe) printTools() {
	names := p.catalog.Names()
	if len(names) == 0 {
		fmt.Println("No tools loaded")
		return
	}
	fmt.Printf("Loaded tools (%d):\n", len(names))
	for _, name := range names {
		h, _ := p.catalog.Handler(name)
		fmt.Printf("  %-24s %s\n", name, h.Endpoint)
	}
}

func printHelp() {
	fmt.Println("Commands:")
	fmt.Println("  /tools         List tools the probe can execute")
	fmt.Println("  /help          Show this help")
	fmt.Println("  /quit          Exit the probe")
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
