package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/esimov/maskbrush"
	"github.com/esimov/maskbrush/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

const HelpBanner = `
┌┬┐┌─┐┌─┐┬┌─┌┐ ┬─┐┬ ┬┌─┐┬ ┬
│││├─┤└─┐├┴┐├┴┐├┬┘│ │└─┐├─┤
┴ ┴┴ ┴└─┘┴ ┴└─┘┴└─└─┘└─┘┴ ┴

Paint translucent overlays over photos and export binary masks.
    Version: %s

`

// pipeName is the file name that indicates stdin/stdout is being used.
const pipeName = "-"

// Version indicates the current build version.
var Version string

var (
	// Flags
	source      = flag.String("in", pipeName, "Source")
	destination = flag.String("out", pipeName, "Destination of the painted overlay")
	maskDst     = flag.String("mask", "", "Destination of the binary mask")
	previewDst  = flag.String("preview", "", "Destination of the overlay composited over the photo")
	scriptPath  = flag.String("script", "", "Session script (YAML) replayed on every photo")
	brushColor  = flag.String("color", envString("MASKBRUSH_COLOR", "#ff0000"), "Brush color")
	brushAlpha  = flag.Float64("alpha", envFloat("MASKBRUSH_ALPHA", 0.3), "Brush opacity in the [0, 1] range")
	brushWidth  = flag.Float64("width", envFloat("MASKBRUSH_WIDTH", maskbrush.DefaultBrushWidth), "Brush width")
	blendMode   = flag.String("mode", "paint", "Brush mode: paint or erase")
	history     = flag.Int("history", envInt("MASKBRUSH_HISTORY", maskbrush.DefaultMaxHistory), "Undo history capacity (-1 for unbounded)")
	raw         = flag.Bool("raw", false, "Paint over the photo instead of its overlay")
	faceDetect  = flag.Bool("face", false, "Pre-seed the mask with the detected faces")
	cascade     = flag.String("cc", envString("MASKBRUSH_CASCADE", ""), "Cascade classifier")
	faceAngle   = flag.Float64("angle", 0.0, "Plane rotated faces angle")
	blend       = flag.String("blend", "", "Blend mode of the preview (normal, darken, lighten, multiply, screen, overlay)")
	empty       = flag.String("empty", "alpha", "Emptiness policy: alpha or color")
	workers     = flag.Int("conc", runtime.NumCPU(), "Number of files to process concurrently")
	debug       = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	log.SetFlags(0)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, HelpBanner, Version)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *debug {
		logger := logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.DebugLevel)
		maskbrush.SetLogger(logger)
	}

	proc, err := newProcessor()
	if err != nil {
		flag.Usage()
		log.Fatal(utils.DecorateText(err.Error(), utils.ErrorMessage))
	}

	spinnerText := fmt.Sprintf("%s %s",
		utils.DecorateText("🖌 MASKBRUSH", utils.StatusMessage),
		utils.DecorateText("is painting the mask...", utils.DefaultMessage))
	proc.Spinner = utils.NewSpinner(spinnerText, time.Millisecond*200, true)
	proc.Spinner.StopMsg = fmt.Sprintf("%s %s",
		utils.DecorateText("🖌 MASKBRUSH", utils.StatusMessage),
		utils.DecorateText("is painting the mask... ✔", utils.DefaultMessage))

	// Capture CTRL-C signal and restore the cursor visibility back.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		if ctx.Err() == context.Canceled {
			proc.Spinner.RestoreCursor()
		}
	}()

	var (
		mu   sync.Mutex
		done int
	)
	ops := &maskbrush.Ops{
		Src:        *source,
		Dst:        *destination,
		MaskDst:    *maskDst,
		PreviewDst: *previewDst,
		PipeName:   pipeName,
		Workers:    *workers,
		Report: func(path string, err error) {
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				done++
				proc.Spinner.SetMessage(fmt.Sprintf("%s %s",
					utils.DecorateText("🖌 MASKBRUSH", utils.StatusMessage),
					utils.DecorateText(fmt.Sprintf("is painting the mask... %d done", done), utils.DefaultMessage)))
			}
			printStatus(path, err)
		},
	}

	now := time.Now()
	n, err := proc.Execute(ctx, ops)
	if err != nil {
		log.Fatalf("%s%s",
			utils.DecorateText(fmt.Sprintf("\nError painting the mask: %v", err), utils.ErrorMessage),
			utils.DefaultColor,
		)
	}
	fmt.Fprintf(os.Stderr, "\nProcessed %d image(s) in %s\n", n,
		utils.DecorateText(utils.FormatTime(time.Since(now)), utils.SuccessMessage))
}

// newProcessor builds the processor from the command line flags.
func newProcessor() (*maskbrush.Processor, error) {
	col, err := utils.HexToNRGBA(*brushColor)
	if err != nil {
		return nil, err
	}
	mode, err := maskbrush.ParseBlendMode(*blendMode)
	if err != nil {
		return nil, err
	}
	policy, err := maskbrush.ParseEmptyPolicy(*empty)
	if err != nil {
		return nil, err
	}
	brush := maskbrush.Brush{
		Color: maskbrush.BrushColor(col, *brushAlpha),
		Width: *brushWidth,
		Mode:  mode,
	}
	if !brush.Valid() {
		return nil, fmt.Errorf("invalid brush width: %v", *brushWidth)
	}

	proc := &maskbrush.Processor{
		Brush:       brush,
		MaxHistory:  *history,
		EmptyPolicy: policy,
		Raw:         *raw,
		Blend:       *blend,
	}

	if *faceDetect {
		if len(*cascade) == 0 {
			return nil, fmt.Errorf("please specify a face classifier in case you are using the -face flag")
		}
		seeder, err := maskbrush.LoadFaceSeeder(*cascade)
		if err != nil {
			return nil, err
		}
		seeder.Angle = *faceAngle
		proc.Seeder = seeder
	}

	if *scriptPath != "" {
		f, err := os.Open(*scriptPath)
		if err != nil {
			return nil, fmt.Errorf("could not open the script: %w", err)
		}
		defer f.Close()
		if proc.Script, err = maskbrush.ParseScript(f); err != nil {
			return nil, err
		}
	}
	return proc, nil
}

// printStatus displays the relevant information about the processed image.
func printStatus(fname string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s%s",
			utils.DecorateText("\nError painting the image: "+filepath.Base(fname), utils.ErrorMessage),
			utils.DecorateText(fmt.Sprintf("\n\tReason: %v\n", err), utils.DefaultMessage),
		)
		return
	}
	if fname != pipeName {
		fmt.Fprintf(os.Stderr, "\nThe overlay has been saved as: %s %s\n",
			utils.DecorateText(filepath.Base(fname), utils.SuccessMessage),
			utils.DefaultColor,
		)
	}
}

var dotenv sync.Once

// lookupEnv reads key after loading the optional .env file of the working directory.
// The flag defaults are evaluated before init, hence the lazy loading.
func lookupEnv(key string) (string, bool) {
	dotenv.Do(func() {
		// A missing .env file is not an error.
		_ = godotenv.Load()
	})
	return os.LookupEnv(key)
}

func envString(key, def string) string {
	if v, ok := lookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envFloat(key string, def float64) float64 {
	s, _ := lookupEnv(key)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	s, _ := lookupEnv(key)
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
