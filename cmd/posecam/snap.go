package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecam/internal/config"
	"github.com/teslashibe/go-posecam/internal/httpc"
	"github.com/teslashibe/go-posecam/internal/log"
	"github.com/teslashibe/go-posecam/pkg/app"
	"github.com/teslashibe/go-posecam/pkg/camera"
	"github.com/teslashibe/go-posecam/pkg/capture"
	"github.com/teslashibe/go-posecam/pkg/detect"
	"github.com/teslashibe/go-posecam/pkg/render"
	"github.com/teslashibe/go-posecam/pkg/ui"
)

type snapOptions struct {
	cam       cameraFlags
	file      string
	warmup    time.Duration
	asJSON    bool
	annotated string
}

func newSnapCmd(opts *options) *cobra.Command {
	var so snapOptions

	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Capture one frame (or --file) and print the detected pose",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSnap(cmd.Context(), opts.cfg, so, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	so.cam.register(cmd)
	cmd.Flags().StringVarP(&so.file, "file", "f", "", "detect on an image file instead of the camera")
	cmd.Flags().DurationVar(&so.warmup, "warmup", 500*time.Millisecond, "wait after the camera starts before capturing")
	cmd.Flags().BoolVar(&so.asJSON, "json", false, "print the result as JSON")
	cmd.Flags().StringVar(&so.annotated, "save-annotated", "", "write the annotated image to this path when the service returns one")
	return cmd
}

func runSnap(ctx context.Context, cfg config.Config, so snapOptions, out, errOut io.Writer) error {
	if err := so.cam.apply(&cfg); err != nil {
		return err
	}

	logger := log.L()
	detector := detect.NewClient(cfg.DetectEndpoint(),
		detect.WithHTTPClient(httpc.NewClient(cfg.DetectTimeout)),
		detect.WithLogger(logger))
	renderer := render.New(cfg.Locale)

	constraints, err := so.cam.constraints()
	if err != nil {
		return err
	}
	// Backends only touch hardware on GetUserMedia, so file mode never opens
	// the camera.
	devices, err := openDevices(cfg)
	if err != nil {
		return err
	}

	session := camera.NewSession(devices,
		camera.WithConstraints(constraints),
		camera.WithLogger(logger))
	ctrl := app.New(session, detector,
		app.WithRenderer(renderer),
		app.WithMaxUpload(cfg.MaxUpload),
		app.WithLogger(logger))

	spinner := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(errOut),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetDescription("Preparing..."),
		progressbar.OptionClearOnFinish(),
	)
	ctrl.OnChange(func(st ui.State) {
		if st.Status != nil && st.Status.Severity == ui.Loading {
			spinner.Describe(st.Status.Text)
		}
	})

	spinCtx, stopSpin := context.WithCancel(ctx)
	go spin(spinCtx, spinner)

	view, err := snap(ctx, ctrl, so)
	stopSpin()
	spinner.Finish()

	st := ctrl.State()
	if err != nil {
		color.New(color.FgRed).Fprintln(errOut, app.Describe(err))
		return err
	}
	if st.Status != nil {
		color.New(color.FgGreen).Fprintln(errOut, st.Status.Text)
	}

	if so.annotated != "" && view.Annotated != nil {
		if err := os.WriteFile(so.annotated, view.Annotated.Bytes(), 0o644); err != nil {
			return fmt.Errorf("save annotated image: %w", err)
		}
		logger.Info("annotated image saved", "path", so.annotated, "type", view.Annotated.MIMEType())
	}

	if so.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}
	return renderer.Text(out, *view)
}

// snap runs one capture through ctrl, from the file when set and otherwise
// from a freshly started camera.
func snap(ctx context.Context, ctrl *app.Controller, so snapOptions) (*render.View, error) {
	if so.file != "" {
		return ctrl.CaptureFile(ctx, capture.OSFile{Path: so.file})
	}

	if err := ctrl.Start(ctx); err != nil {
		return nil, err
	}
	defer ctrl.Stop()
	if ctrl.State().Session != camera.Active {
		return nil, errors.New("camera stopped before capture")
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(so.warmup):
	}
	return ctrl.CaptureLive(ctx)
}

func spin(ctx context.Context, bar *progressbar.ProgressBar) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bar.Add(1)
		}
	}
}
