// Copyright 2026 Marcelo Cantos
// SPDX-License-Identifier: Apache-2.0

// Package mcp exposes the parser and the executor as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/marcelocantos/eliash/internal/audit"
	"github.com/marcelocantos/eliash/internal/command"
	"github.com/marcelocantos/eliash/internal/executor"
	"github.com/marcelocantos/eliash/internal/parser"
	"github.com/marcelocantos/eliash/internal/shell"
)

const journalURI = "eliash://audit/recent"

// recentEntries is how many journal entries the audit resource serves.
const recentEntries = 50

// RunResult is the payload of a run_line call.
type RunResult struct {
	Tree   string `json:"tree"`
	Status int    `json:"status"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

// Server serves parse_line and run_line over MCP.
type Server struct {
	parser    parser.Parser
	exec      executor.Executor
	journal   *audit.Journal
	log       *zerolog.Logger
	mcpServer *server.MCPServer
}

// NewServer returns a server that parses with p and runs trees with a copy
// of x whose descriptors are replaced per call. journal may be nil.
func NewServer(version string, p parser.Parser, x *executor.Executor, journal *audit.Journal, log *zerolog.Logger) *Server {
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	s := &Server{
		parser:    p,
		exec:      *x,
		journal:   journal,
		log:       log,
		mcpServer: server.NewMCPServer("eliash", version),
	}
	s.registerTools()
	if journal != nil {
		s.registerResources()
	}
	return s
}

// ServeStdio serves on Stdin/Stdout until the client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("parse_line",
		mcp.WithDescription("Parse a command line into its command tree without running it. Returns the tree as JSON."),
		mcp.WithString("line", mcp.Required(), mcp.Description("Command line, e.g. /bin/ls -l | /usr/bin/wc -l")),
	), s.handleParse)

	s.mcpServer.AddTool(mcp.NewTool("run_line",
		mcp.WithDescription("Parse and run a command line. Programs are given by path; there is no PATH search. Returns the exit status and captured output."),
		mcp.WithString("line", mcp.Required(), mcp.Description("Command line to run")),
	), s.handleRun)
}

func (s *Server) handleParse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := request.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	cmd, err := s.parser.Parse(line)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := command.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	line, err := request.RequireString("line")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if f := parser.Fields(line); len(f) > 0 && shell.IsBuiltin(f[0]) {
		return mcp.NewToolResultError(fmt.Sprintf("%s is a shell builtin and cannot be run here", f[0])), nil
	}

	cmd, err := s.parser.Parse(line)
	if err != nil {
		s.record(audit.Record{Line: line, Status: executor.StatusUsage, Err: err})
		return mcp.NewToolResultError(err.Error()), nil
	}

	start := time.Now()
	result, err := s.run(cmd)
	s.record(audit.Record{
		Line:     line,
		Tree:     result.Tree,
		Status:   result.Status,
		Err:      err,
		Duration: time.Since(start),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// run executes cmd with stdin on /dev/null, since the server's own stdin
// carries the protocol, and stdout and stderr captured in temp files.
func (s *Server) run(cmd command.Command) (RunResult, error) {
	result := RunResult{Tree: command.Format(cmd)}

	stdin, err := os.Open(os.DevNull)
	if err != nil {
		return result, err
	}
	defer stdin.Close()
	stdout, err := captureFile("stdout")
	if err != nil {
		return result, err
	}
	defer discard(stdout)
	stderr, err := captureFile("stderr")
	if err != nil {
		return result, err
	}
	defer discard(stderr)

	x := s.exec
	x.Stdin, x.Stdout, x.Stderr = stdin, stdout, stderr
	result.Status, err = x.Launch(cmd)
	if err != nil {
		return result, err
	}

	out, err := os.ReadFile(stdout.Name())
	if err != nil {
		return result, fmt.Errorf("read captured stdout: %w", err)
	}
	errOut, err := os.ReadFile(stderr.Name())
	if err != nil {
		return result, fmt.Errorf("read captured stderr: %w", err)
	}
	result.Stdout, result.Stderr = string(out), string(errOut)
	s.log.Debug().Str("tree", result.Tree).Int("status", result.Status).Msg("run_line")
	return result, nil
}

func captureFile(name string) (*os.File, error) {
	f, err := os.CreateTemp("", "eliash-mcp-"+name+"-*")
	if err != nil {
		return nil, fmt.Errorf("create capture file: %w", err)
	}
	return f, nil
}

func discard(f *os.File) {
	f.Close()
	os.Remove(f.Name())
}

func (s *Server) record(rec audit.Record) {
	if s.journal == nil {
		return
	}
	rec.Cwd, _ = os.Getwd()
	if _, err := s.journal.Append(rec); err != nil {
		s.log.Warn().Err(err).Msg("audit append failed")
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(journalURI, "Recent journal entries",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		entries, err := audit.Tail(s.journal.Path(), recentEntries)
		if err != nil {
			return nil, fmt.Errorf("read journal: %w", err)
		}
		data, err := json.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("encode journal: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      journalURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}
