package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/spf13/cobra"

	"github.com/IdanRossman/jiranimo/internal/client"
	"github.com/IdanRossman/jiranimo/internal/events"
	"github.com/IdanRossman/jiranimo/internal/ui"
)

// reconnectDelay is the pause before re-opening a dropped event stream.
const reconnectDelay = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Stream board events as they happen",
	GroupID: "board",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		topics, _ := cmd.Flags().GetStringSlice("topics")
		natsURL, _ := cmd.Flags().GetString("nats")
		if natsURL == "" {
			natsURL = os.Getenv("JIRANIMO_NATS_URL")
		}
		if natsURL == "" {
			natsURL = activeRemoteNATSURL()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		w := cmd.OutOrStdout()
		t := ui.NewTheme(w)
		if natsURL != "" {
			return watchNATS(ctx, w, t, natsURL, topics)
		}
		return watchSSE(ctx, w, t, topics)
	},
}

// watchSSE follows the server's event stream, reconnecting when it drops.
func watchSSE(ctx context.Context, w io.Writer, t *ui.Theme, topics []string) error {
	for {
		err := dash.Stream(ctx, topics, func(ev client.StreamEvent) error {
			return printMessage(w, t, events.Message{Topic: ev.Topic, Data: ev.Data})
		})
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			slog.Warn("event stream interrupted", "err", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(reconnectDelay):
		}
	}
}

// watchNATS subscribes to the server's NATS subjects directly, one
// subscription per topic pattern.
func watchNATS(ctx context.Context, w io.Writer, t *ui.Theme, natsURL string, topics []string) error {
	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats: disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			slog.Info("nats: reconnected")
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	if len(topics) == 0 {
		topics = []string{"jiranimo.>"}
	}
	merged := make(chan events.Message)
	for _, topic := range topics {
		ch, cancel, err := sub.Subscribe(topic)
		if err != nil {
			return fmt.Errorf("subscribing to events: %w", err)
		}
		defer cancel()
		go func() {
			for m := range ch {
				select {
				case merged <- m:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-merged:
			if err := printMessage(w, t, m); err != nil {
				return err
			}
		}
	}
}

// printMessage writes one line per event. Transitions are summarized; other
// events are printed as their JSON payload.
func printMessage(w io.Writer, t *ui.Theme, m events.Message) error {
	stamp := t.Muted.Render(time.Now().Format("15:04:05"))
	if tr, ok := m.Transition(); ok {
		line := fmt.Sprintf("%s %s -> %s %s", tr.IssueKey, tr.From, tr.To, tr.Outcome)
		switch tr.Outcome {
		case "committed":
			line = t.Done.Render(line)
		case "reverted":
			line = t.Error.Render(line + ": " + tr.Error)
		}
		_, err := fmt.Fprintf(w, "%s %s\n", stamp, line)
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s %s\n", stamp, t.Accent.Render(m.Topic), m.Data)
	return err
}

func init() {
	watchCmd.Flags().StringSlice("topics", nil, "topic patterns to follow (e.g. jiranimo.transition.*)")
	watchCmd.Flags().String("nats", "", "read events from NATS instead of the server stream")
}
