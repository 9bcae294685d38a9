package cli

import (
	"fmt"
	"io"
	"strings"

	"curriculum-rag-be/internal/entity"

	"github.com/spf13/cobra"
)

var chunksFull bool

var chunksCmd = &cobra.Command{
	Use:   "chunks [document]",
	Short: "Show the stored chunks of a document, or the corpus size",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runChunks,
}

func init() {
	chunksCmd.Flags().BoolVar(&chunksFull, "full", false, "print whole chunk contents")
	rootCmd.AddCommand(chunksCmd)
}

func runChunks(cmd *cobra.Command, args []string) error {
	cfg, container, err := buildContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		count, err := container.Store.CountChunks(cmd.Context())
		if err != nil {
			return err
		}
		headline.Fprintf(out, "%d chunk(s) embedded with %s\n", count, cfg.Ai.EmbeddingModel)
		return nil
	}

	chunks, err := container.Store.DocumentChunks(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	printChunks(out, args[0], chunks, chunksFull)
	return nil
}

const chunkPreviewRunes = 120

func printChunks(w io.Writer, document string, chunks []*entity.CurriculumChunk, full bool) {
	headline.Fprintf(w, "%s: %d chunk(s)\n", document, len(chunks))
	for _, c := range chunks {
		content := c.Content
		if !full {
			content = preview(content, chunkPreviewRunes)
		}
		faint.Fprintf(w, "#%d ", c.ChunkIndex)
		fmt.Fprintln(w, content)
	}
}

func preview(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
