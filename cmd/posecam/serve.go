package main

import (
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-posecam/internal/httpc"
	"github.com/teslashibe/go-posecam/internal/log"
	"github.com/teslashibe/go-posecam/pkg/app"
	"github.com/teslashibe/go-posecam/pkg/camera"
	"github.com/teslashibe/go-posecam/pkg/detect"
	"github.com/teslashibe/go-posecam/pkg/render"
	"github.com/teslashibe/go-posecam/pkg/web"
)

func newServeCmd(opts *options) *cobra.Command {
	var (
		cam       cameraFlags
		port      string
		webDir    string
		accessLog bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the camera control API and live preview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := opts.cfg
			if port != "" {
				cfg.Port = port
			}
			if webDir != "" {
				cfg.WebDir = webDir
			}
			if err := cam.apply(&cfg); err != nil {
				return err
			}
			constraints, err := cam.constraints()
			if err != nil {
				return err
			}
			devices, err := openDevices(cfg)
			if err != nil {
				return err
			}

			logger := log.L()
			detector := detect.NewClient(cfg.DetectEndpoint(),
				detect.WithHTTPClient(httpc.NewClient(cfg.DetectTimeout)),
				detect.WithLogger(logger))
			session := camera.NewSession(devices,
				camera.WithConstraints(constraints),
				camera.WithLogger(logger))
			ctrl := app.New(session, detector,
				app.WithRenderer(render.New(cfg.Locale)),
				app.WithMaxUpload(cfg.MaxUpload),
				app.WithLogger(logger))
			defer ctrl.Stop()

			srv := web.NewServer(ctrl, web.Config{
				Port:            cfg.Port,
				WebDir:          cfg.WebDir,
				PreviewInterval: cfg.PreviewInterval,
				MaxUpload:       cfg.MaxUpload,
				AccessLog:       accessLog,
				Logger:          logger,
				Detector:        detector,
			})

			logger.Info("starting posecam",
				"detect_url", cfg.DetectEndpoint(),
				"backend", cfg.CameraBackend,
				"preset", cam.preset,
				"locale", cfg.Locale)
			return srv.Run(cmd.Context())
		},
	}

	cam.register(cmd)
	cmd.Flags().StringVar(&port, "port", "", "listen port (env POSECAM_PORT)")
	cmd.Flags().StringVar(&webDir, "web-dir", "", "directory of static files served at / (env POSECAM_WEB_DIR)")
	cmd.Flags().BoolVar(&accessLog, "access-log", false, "log every HTTP request")
	return cmd
}
