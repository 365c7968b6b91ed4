package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"legal-rag/internal/cli"
)

//go:generate swagger generate spec -o swagger.json

// General API information
//
// This API answers questions strictly from an indexed corpus of statutory legal texts.
//
// swagger:meta
//
// ---
// swagger: '2.0'
// info:
//   title: Legal RAG API
//   description: |
//     RAG (Retrieval-Augmented Generation) API over a local corpus of Acts, Rules and Regulations.
//     Answers quote the retrieved provisions verbatim, or refuse when the corpus does not contain the answer.
//   version: 1.0.0
// schemes:
//   - http
// consumes:
//   - application/json
// produces:
//   - application/json

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.Execute(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
