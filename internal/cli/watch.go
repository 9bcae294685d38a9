package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"syscall"

	"curriculum-rag-be/internal/config"
	"curriculum-rag-be/internal/pkg/apperror"
	"curriculum-rag-be/pkg/events"

	pktNats "curriculum-rag-be/pkg/nats"

	"github.com/spf13/cobra"
)

var watchDurable string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Tail ingestion completed events from NATS",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchDurable, "durable", "", "durable consumer name (default: only new events)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if cfg.App.NatsURL == "" {
		return apperror.New(apperror.KindConfiguration, "missing configuration: NATS_URL")
	}

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	headline.Fprintf(out, "Watching %s on %s\n", events.TypeIngestionCompleted, cfg.App.NatsURL)

	return sub.Subscribe(ctx, events.TypeIngestionCompleted, watchDurable, func(_ context.Context, event events.Event) error {
		printEvent(out, event)
		return nil
	})
}

func printEvent(w io.Writer, event events.Event) {
	payload := event.Payload()
	stamp := event.Timestamp().Format("2006-01-02 15:04:05")

	if ok, _ := payload["success"].(bool); ok {
		success.Fprintf(w, "[%s] %s run %v\n", stamp, event.EventType(), payload["run_id"])
	} else {
		failure.Fprintf(w, "[%s] %s run %v failed\n", stamp, event.EventType(), payload["run_id"])
	}

	keys := make([]string, 0, len(payload))
	for k := range payload {
		if k == "success" || k == "run_id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %v\n", k, payload[k])
	}
}
