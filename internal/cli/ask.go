package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"legal-rag/internal/repl"
	"legal-rag/internal/tui"
)

type askOptions struct {
	tui    bool
	qdrant bool
	topK   int
}

func newAskCommand(a *app) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask",
		Short: "Ask questions interactively",
		Long: `Loads the index and answers one question per line, strictly from the
retrieved legal text. Type exit to quit. There is no memory between questions.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runAsk(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.tui, "tui", false, "use the full-screen interface")
	cmd.Flags().BoolVar(&opts.qdrant, "qdrant", false, "search the Qdrant mirror instead of the local index")
	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", 0, "chunks retrieved per question (default TOP_K)")
	return cmd
}

func (a *app) runAsk(cmd *cobra.Command, opts askOptions) error {
	ctx := cmd.Context()

	stack, err := a.openQueryStack(ctx, opts.qdrant, opts.topK)
	if err != nil {
		return err
	}
	defer stack.Close()

	if opts.tui {
		summary := fmt.Sprintf("%d vectors, dimension %d, models %s / %s",
			stack.store.Len(), stack.store.Dim(), a.cfg.EmbedModel, a.cfg.ChatModel)
		return tui.Run(ctx, stack.service, summary)
	}
	return repl.Run(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), stack.service)
}
