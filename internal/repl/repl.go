// Package repl runs the line-oriented question loop.
package repl

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"legal-rag/internal/service"
)

const (
	// Prompt is printed before each question.
	Prompt = "\nAsk a legal question: "
	// ExitCommand ends the session, compared case-insensitively.
	ExitCommand = "exit"
)

// IsExit reports whether line ends the session.
func IsExit(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), ExitCommand)
}

// Run reads one question per line from in and writes answers to out until
// the user types exit, in is exhausted, or ctx is done. Query failures are
// printed as diagnostics and the loop continues.
func Run(ctx context.Context, in io.Reader, out io.Writer, svc service.AskService) error {
	if _, err := fmt.Fprintf(out, "Legal RAG ready. Type '%s' to quit.\n", ExitCommand); err != nil {
		return fmt.Errorf("failed to write banner: %w", err)
	}

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if _, err := io.WriteString(out, Prompt); err != nil {
			return fmt.Errorf("failed to write prompt: %w", err)
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("failed to read question: %w", err)
			}
			return nil
		}

		question := strings.TrimSpace(scanner.Text())
		if IsExit(question) {
			return nil
		}
		if question == "" {
			continue
		}

		resp, err := svc.Ask(ctx, service.AskRequest{Question: question})
		if err != nil {
			if _, werr := fmt.Fprintf(out, "\nERROR: %s\n", service.Diagnostic(err)); werr != nil {
				return fmt.Errorf("failed to write diagnostic: %w", werr)
			}
			continue
		}

		if _, err := fmt.Fprintf(out, "\nANSWER:\n\n%s\n", resp.Answer); err != nil {
			return fmt.Errorf("failed to write answer: %w", err)
		}
	}
}
