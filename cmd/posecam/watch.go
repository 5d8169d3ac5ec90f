package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecam/internal/log"
	"github.com/teslashibe/go-posecam/pkg/ui"
)

func newWatchCmd(opts *options) *cobra.Command {
	var server string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow state changes of a running posecam serve",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := server
			if url == "" {
				url = "ws://localhost:" + opts.cfg.Port + "/ws/state"
			}
			return watch(cmd.Context(), url, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&server, "url", "", "state websocket URL (default ws://localhost:$POSECAM_PORT/ws/state)")
	return cmd
}

// watch prints every ui.State published on url until ctx is done or the
// server closes the connection.
func watch(ctx context.Context, url string, out io.Writer) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	if err != nil {
		return fmt.Errorf("connect %s: %w", url, err)
	}
	defer conn.Close()
	log.Info("watching", "url", url)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-done:
			return
		case <-ctx.Done():
		}
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}

		var st ui.State
		if err := json.Unmarshal(data, &st); err != nil {
			log.Warn("skipping malformed state", "error", err)
			continue
		}
		fmt.Fprintln(out, formatState(time.Now(), st))
	}
}

// formatState renders one state change as a single terminal line.
func formatState(at time.Time, st ui.State) string {
	line := fmt.Sprintf("%s %-9s", at.Format("15:04:05"), st.Session)
	if st.Busy {
		line += " busy"
	}
	if st.Status != nil {
		line += " " + severityColor(st.Status.Severity).Sprint(st.Status.Text)
	}
	if st.Result != nil {
		line += fmt.Sprintf(" | %s, %d landmarks, %d connections",
			st.Result.PoseName, st.Result.LandmarkCount, st.Result.ConnectionCount)
	}
	return line
}

func severityColor(s ui.Severity) *color.Color {
	switch s {
	case ui.Success:
		return color.New(color.FgGreen)
	case ui.Error:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgCyan)
	}
}
