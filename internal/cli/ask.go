package cli

import (
	"fmt"
	"io"
	"strings"

	"curriculum-rag-be/internal/constant"
	"curriculum-rag-be/internal/dto"
	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/internal/service"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a question and stream the grounded answer",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	_, container, err := buildContainer()
	if err != nil {
		return err
	}
	defer container.Close()

	return ask(cmd, container.QueryService, strings.Join(args, " "))
}

func ask(cmd *cobra.Command, queries service.IQueryService, question string) error {
	out := cmd.OutOrStdout()

	err := queries.Answer(cmd.Context(), question, func(event dto.StreamEvent) error {
		renderEvent(out, event)
		return nil
	})
	if apperror.KindOf(err) == apperror.KindNoRelevantInformation {
		warning.Fprintln(out, constant.NoRelevantInformationMessage)
		return nil
	}
	return err
}

// renderEvent prints tokens inline and frames them with the sources.
func renderEvent(w io.Writer, event dto.StreamEvent) {
	switch event.Type {
	case dto.StreamEventStart:
		faint.Fprintf(w, "Sources: %s\n\n", strings.Join(event.Sources, ", "))
	case dto.StreamEventToken:
		fmt.Fprint(w, event.Content)
	case dto.StreamEventEnd:
		fmt.Fprintln(w)
	case dto.StreamEventError:
		fmt.Fprintln(w)
		failure.Fprintf(w, "Error: %s\n", event.Error)
	}
}
