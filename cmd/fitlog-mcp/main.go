// Command fitlog-mcp serves the fitlog MCP tools over stdio, reading data
// from a remote fitlog server. Configure it in an MCP client with the
// server URL and a bearer token issued by `fitlog -issue-token`.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/romanpilnik/fitlog/internal/mcp"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", os.Getenv("FITLOG_URL"), "fitlog server URL")
	flag.Parse()

	token := os.Getenv("FITLOG_TOKEN")
	if *serverURL == "" || token == "" {
		fmt.Fprintf(os.Stderr, "Usage: FITLOG_TOKEN=<token> fitlog-mcp -server <URL>\n")
		os.Exit(1)
	}

	// stdout carries the protocol, so logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	srv := mcp.New(mcp.NewHTTPClient(*serverURL, token), Version, log)
	if err := server.ServeStdio(srv); err != nil {
		log.Error("mcp server stopped", "error", err)
		os.Exit(1)
	}
}
