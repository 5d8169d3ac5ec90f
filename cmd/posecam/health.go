package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecam/internal/httpc"
	"github.com/teslashibe/go-posecam/internal/log"
	"github.com/teslashibe/go-posecam/pkg/detect"
)

func newHealthCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the pose detection service is reachable and healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client := detect.NewClient(opts.cfg.DetectEndpoint(),
				detect.WithHTTPClient(httpc.Client),
				detect.WithLogger(log.L()))

			h, err := client.Health(cmd.Context())
			if err != nil {
				color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "%s: unreachable\n", opts.cfg.DetectEndpoint())
				return err
			}

			name := h.Service
			if name == "" {
				name = opts.cfg.DetectEndpoint()
			}
			if !h.Healthy() {
				color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, h.Status)
				return fmt.Errorf("service reports status %q", h.Status)
			}
			color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, h.Status)
			return nil
		},
	}
}
