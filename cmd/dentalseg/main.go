package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"dentalseg/internal/logger"
	"dentalseg/pkg/binarize"
	"dentalseg/pkg/config"
	"dentalseg/pkg/filters"
	"dentalseg/pkg/imageio"
	"dentalseg/pkg/segmentation"
	"dentalseg/pkg/tracing"
	"dentalseg/pkg/visualization"
)

func main() {
	// Parse command line arguments
	inputPath := flag.String("input", "", "Radiograph to process (png, jpg, gif, tif, bmp)")
	configPath := flag.String("config", "dentalseg.yaml", "YAML configuration file")
	initConfig := flag.Bool("init-config", false, "Write the default configuration to -config and exit")
	mode := flag.String("mode", "all", "Pipeline to run: segment, trace or all")
	outputDir := flag.String("output", "output", "Directory for the result images")
	numCores := flag.Int("cores", 0, "Number of goroutines for profile extraction (default: from config)")
	saveIntermediary := flag.Bool("save-intermediary", false, "Save intermediary results during processing")
	extractSegments := flag.Bool("extract-segments", false, "Save every binarized crown segment as its own image")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	log := logger.NewConsole(logger.ParseLevel(*logLevel))

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to write default configuration")
		}
		log.Info().Str("path", *configPath).Msg("Default configuration written")
		return
	}

	// Validate inputs
	if *inputPath == "" {
		flag.Usage()
		os.Exit(1)
	}
	runSegment, runTrace, err := parseMode(*mode)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid arguments")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *numCores > 0 {
		if err := cfg.SetNumCores(*numCores); err != nil {
			log.Fatal().Err(err).Msg("Invalid arguments")
		}
	}
	if *saveIntermediary {
		cfg.Output.SaveIntermediaryResults = true
	}
	cfg.Output.IntermediaryDir = filepath.Join(*outputDir, cfg.Output.IntermediaryDir)
	if !cfg.Output.Verbose && *logLevel == "info" {
		log = log.Level(zerolog.WarnLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	img, err := imageio.LoadGray(*inputPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load input")
	}
	log.Info().Str("input", *inputPath).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("Loaded radiograph")

	startTime := time.Now()

	if runSegment {
		if err := segment(ctx, log, cfg, img, *outputDir, *extractSegments); err != nil {
			log.Fatal().Err(err).Msg("Segmentation failed")
		}
	}
	if runTrace {
		if err := trace(ctx, log, cfg, img, *outputDir); err != nil {
			log.Fatal().Err(err).Msg("Tracing failed")
		}
	}

	log.Info().
		Dur("elapsed", time.Since(startTime)).
		Str("output", *outputDir).
		Msg("Processing completed successfully")

	// Print information about intermediary results if saved
	if cfg.Output.SaveIntermediaryResults {
		fmt.Println("\nIntermediary results saved to:")
		fmt.Printf("%s\n", cfg.Output.IntermediaryDir)
		fmt.Println("The following stages were saved:")
		if runSegment {
			fmt.Println("- 01_crown_points: Crown points left after outlier removal, with the jaw bands")
			fmt.Println("- 02_crown_curves: Fitted crown curves")
			fmt.Println("- 03_neck_curves: Neck curves")
			fmt.Println("- 04_binarized: Binarized image with segment polygons")
		}
		if runTrace {
			fmt.Println("- 05_contour: Traced tooth contour and its seed")
		}
	}
}

func parseMode(mode string) (segment, trace bool, err error) {
	switch strings.ToLower(mode) {
	case "segment":
		return true, false, nil
	case "trace":
		return false, true, nil
	case "all":
		return true, true, nil
	}
	return false, false, fmt.Errorf("unknown mode %q (must be segment, trace or all)", mode)
}

func segment(ctx context.Context, log zerolog.Logger, cfg *config.Config, img *image.Gray, outputDir string, extract bool) error {
	filtered, err := filters.ApplyChain(img, cfg.Preprocessing.Segmentation)
	if err != nil {
		return fmt.Errorf("failed to filter image: %w", err)
	}

	s := segmentation.NewSegmenter(cfg, segmentation.WithLogger(logger.Component(log, "segmentation")))
	res, err := s.Process(ctx, filtered)
	if err != nil {
		return err
	}

	binarized := filepath.Join(outputDir, "binarized.png")
	if err := imageio.SaveGray(binarized, res.Image); err != nil {
		return err
	}
	log.Info().Str("path", binarized).
		Int("upperSegments", len(res.UpperSegments)).
		Int("lowerSegments", len(res.LowerSegments)).
		Msg("Saved binarized image")

	overlay := visualization.NewOverlay(img)
	overlay.DrawCurve(res.CrownCurves.Upper, color.RGBA{R: 255, A: 255})
	overlay.DrawCurve(res.CrownCurves.Lower, color.RGBA{R: 255, A: 255})
	overlay.DrawCurve(res.NeckCurves.Upper, color.RGBA{G: 255, A: 255})
	overlay.DrawCurve(res.NeckCurves.Lower, color.RGBA{G: 255, A: 255})
	if err := overlay.Save(filepath.Join(outputDir, "curves.png")); err != nil {
		log.Warn().Err(err).Msg("Failed to save curve overlay")
	}

	if extract {
		segmentsDir := filepath.Join(outputDir, "segments")
		log.Info().Str("dir", segmentsDir).Msg("Saving crown segments...")
		binarizedOverlay := visualization.NewOverlay(res.Image)
		for _, jaw := range []struct {
			name     string
			segments []binarize.Segment
		}{{"upper", res.UpperSegments}, {"lower", res.LowerSegments}} {
			regions := make([]image.Rectangle, len(jaw.segments))
			for i, seg := range jaw.segments {
				regions[i] = seg.Polygon.Bounds()
			}
			if err := binarizedOverlay.SaveRegionSequence(regions, jaw.name, segmentsDir); err != nil {
				log.Warn().Err(err).Str("jaw", jaw.name).Msg("Failed to save crown segments")
			}
		}
	}
	return nil
}

func trace(ctx context.Context, log zerolog.Logger, cfg *config.Config, img *image.Gray, outputDir string) error {
	filtered, err := filters.ApplyChain(img, cfg.Preprocessing.Tracing)
	if err != nil {
		return fmt.Errorf("failed to filter image: %w", err)
	}

	tr := tracing.NewTracer(cfg, tracing.WithLogger(logger.Component(log, "tracing")))
	res, err := tr.Process(ctx, filtered)
	if err != nil {
		return err
	}

	overlay := visualization.NewOverlay(img)
	overlay.DrawCurve(res.Contour.Points, color.RGBA{R: 255, G: 255, A: 255})
	overlay.DrawXAtPoints([]image.Point{res.Seed}, 3, color.RGBA{R: 255, A: 255})
	path := filepath.Join(outputDir, "contour.png")
	if err := overlay.Save(path); err != nil {
		return err
	}
	log.Info().Str("path", path).
		Int("points", res.Contour.Len()).
		Stringer("leftStop", res.Left.Stop).
		Stringer("rightStop", res.Right.Stop).
		Msg("Saved traced contour")
	return nil
}
