package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"math"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"InkOverlay/internal/bridge"
	"InkOverlay/internal/config"
	"InkOverlay/internal/export"
	inknet "InkOverlay/internal/net"
	"InkOverlay/internal/overlay"
	"InkOverlay/internal/state"
	"InkOverlay/internal/ui"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
)

func main() {
	root := &cobra.Command{
		Use:           "inkoverlay",
		Short:         "Freehand ink overlay with GeoJSON, SVG, PNG and PDF export",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runApp,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "inkoverlay.toml", "config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log overlay debug events")

	root.AddCommand(
		runCommand(),
		renderCommand(),
		inspectCommand(),
		discoverCommand(),
		configCommand(),
	)

	if err := root.Execute(); err != nil {
		log.Fatalf("[APP] %v", err)
	}
}

func loadConfig() (config.Config, error) {
	return config.LoadOrDefault(configPath)
}

func overlayLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func runCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Open the drawing window (default)",
		Args:  cobra.NoArgs,
		RunE:  runApp,
	}
}

func runApp(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	feed := inknet.NewFeed()
	if cfg.Feed.Listen != "" {
		stop, err := startFeed(ctx, feed, cfg.Feed)
		if err != nil {
			return err
		}
		defer stop()
	}

	saved, err := os.ReadFile(cfg.Storage.Path)
	switch {
	case err == nil:
		feed.Publish(saved)
		log.Printf("[APP] Restoring %s", cfg.Storage.Path)
	case os.IsNotExist(err):
		saved = nil
	default:
		return fmt.Errorf("read saved drawings: %w", err)
	}

	oc := cfg.Overlay()
	oc.Logger = overlayLogger()
	oc.OnSave = func(p overlay.Payload) {
		data, err := p.GeometryJSON()
		if err != nil {
			log.Printf("[APP] Encoding saved drawings failed: %v", err)
			return
		}
		if err := export.WriteFile(cfg.Storage.Path, data); err != nil {
			log.Printf("[APP] Storing saved drawings failed: %v", err)
		} else {
			log.Printf("[APP] Stored %d drawings in %s", len(p.Geometry.Features), cfg.Storage.Path)
		}
		feed.Publish(data)
	}

	return ui.RunApp(ui.AppOptions{
		Title:    cfg.Window.Title,
		Width:    cfg.Window.Width,
		Height:   cfg.Window.Height,
		Viewport: cfg.Mercator(0, 0),
		Overlay:  oc,
		Setup: func(v *ui.View) {
			if saved == nil {
				return
			}
			v.WhenLaidOut(func() {
				n, err := v.Overlay().LoadDocument(saved)
				if err != nil {
					log.Printf("[APP] Restoring saved drawings failed: %v", err)
					v.SetStatus("Could not restore saved drawings")
					return
				}
				v.SetStatus(fmt.Sprintf("Restored %d drawings", n))
			})
		},
	})
}

func startFeed(ctx context.Context, feed *inknet.Feed, fc config.Feed) (func(), error) {
	ln, err := net.Listen("tcp", fc.Listen)
	if err != nil {
		return nil, fmt.Errorf("feed listen: %w", err)
	}
	go func() {
		if err := feed.Serve(ctx, ln); err != nil {
			log.Printf("[FEED] %v", err)
		}
	}()

	port := ln.Addr().(*net.TCPAddr).Port
	log.Printf("[FEED] Viewers can connect to %s", inknet.ShareURL(port))
	if !fc.Advertise {
		return func() {}, nil
	}

	server, err := inknet.Advertise(port)
	if err != nil {
		log.Printf("[MDNS] Advertising failed: %v", err)
		return func() {}, nil
	}
	log.Printf("[MDNS] Advertising %s on port %d", inknet.ServiceType, port)
	return func() {
		if err := server.Shutdown(); err != nil {
			log.Printf("[MDNS] Shutdown: %v", err)
		}
	}, nil
}

func renderCommand() *cobra.Command {
	var (
		output        string
		width, height float64
		ratio         float64
		pixels        bool
	)
	cmd := &cobra.Command{
		Use:   "render INPUT.geojson",
		Short: "Render a saved geometry document to .png, .svg, .pdf or .geojson",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			oc := cfg.Overlay()
			oc.Logger = overlayLogger()
			oc.Deliver = export.WriteFile

			if pixels {
				if width <= 0 || height <= 0 {
					width, height, err = fitDocument(data)
					if err != nil {
						return err
					}
				}
			} else {
				if width <= 0 || height <= 0 {
					width, height = float64(cfg.Window.Width), float64(cfg.Window.Height)
				}
				m := cfg.Mercator(width, height)
				if err := m.Validate(); err != nil {
					return err
				}
				oc.PixelToLogical, oc.LogicalToPixel = m.ToLogical, m.ToPixel
			}

			ov, err := overlay.New(overlay.NewStaticHost(width, height, ratio), oc)
			if err != nil {
				return err
			}
			defer ov.Close()

			n, err := ov.LoadDocument(data)
			if err != nil {
				return err
			}
			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".png"
			}
			if err := writeRendered(ov, output); err != nil {
				return err
			}
			log.Printf("[RENDER] Wrote %d drawings to %s (%gx%g @%gx)", n, output, width, height, ratio)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file; the extension picks the format")
	cmd.Flags().Float64Var(&width, "width", 0, "surface width in pixels")
	cmd.Flags().Float64Var(&height, "height", 0, "surface height in pixels")
	cmd.Flags().Float64Var(&ratio, "dpr", 1, "device pixel ratio for .png output")
	cmd.Flags().BoolVar(&pixels, "pixels", false, "coordinates are pixels, not lng/lat")
	return cmd
}

// fitDocument sizes a surface to hold every path of a pixel document.
func fitDocument(data []byte) (float64, float64, error) {
	paths, err := export.ParseGeometryDocument(data, bridge.Bridge{})
	if err != nil {
		return 0, 0, err
	}
	r, ok := state.Bounds(paths)
	if !ok {
		return 1, 1, nil
	}
	corner := r.Pad(fitPadding).Max()
	return math.Max(corner.X, 1), math.Max(corner.Y, 1), nil
}

const fitPadding = 10

func writeRendered(ov *overlay.Overlay, output string) error {
	switch strings.ToLower(filepath.Ext(output)) {
	case ".png":
		if <-ov.ExportRasterImage(output) == nil {
			return fmt.Errorf("png encoding failed")
		}
		return nil
	case ".svg":
		_, err := ov.ExportMarkupFile(output)
		return err
	case ".pdf":
		_, err := ov.ExportPDF(output)
		return err
	case ".geojson", ".json":
		_, err := ov.ExportGeometryDocument(output)
		return err
	}
	return fmt.Errorf("unsupported output format %q", filepath.Ext(output))
}

func inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect FILE.geojson",
		Short: "Print a summary of a saved geometry document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			paths, err := export.ParseGeometryDocument(data, bridge.Bridge{})
			if err != nil {
				return err
			}
			return export.WriteSummary(cmd.OutOrStdout(), paths)
		},
	}
}

func discoverCommand() *cobra.Command {
	var (
		timeout time.Duration
		watch   bool
	)
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find drawing feeds on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var found []inknet.Service
			err := inknet.Browse(cmd.Context(), timeout, func(s inknet.Service) {
				found = append(found, s)
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", s.Instance, s.FeedURL())
			})
			if err != nil {
				return err
			}
			if len(found) == 0 {
				log.Println("[MDNS] No feeds found")
				return nil
			}
			if !watch {
				return nil
			}

			url := found[0].FeedURL()
			log.Printf("[FEED] Watching %s", url)
			return inknet.Watch(cmd.Context(), url, func(doc []byte) {
				paths, err := export.ParseGeometryDocument(doc, bridge.Bridge{})
				if err != nil {
					log.Printf("[FEED] Bad document: %v", err)
					return
				}
				if err := export.WriteSummary(cmd.OutOrStdout(), paths); err != nil {
					log.Printf("[FEED] %v", err)
				}
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "how long to listen for answers")
	cmd.Flags().BoolVar(&watch, "watch", false, "follow the first feed found")
	return cmd
}

func configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as TOML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			data, err := cfg.Encode()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
