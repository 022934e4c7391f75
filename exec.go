package maskbrush

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync/atomic"

	"github.com/esimov/maskbrush/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// maxWorkers sets the maximum number of concurrently running workers.
const maxWorkers = 20

var (
	// validExtensions lists the supported source image types.
	validExtensions = []string{".jpg", ".png", ".jpeg", ".bmp", ".gif"}
	// outputExtensions lists the image types the outputs can be encoded to.
	outputExtensions = []string{".png", ".jpg", ".jpeg", ".bmp"}
)

// Ops describes the source and the destinations of a batch run. Src and
// Dst are either files or directories; PipeName stands for stdin or stdout.
// MaskDst and PreviewDst are optional.
type Ops struct {
	Src, Dst, PipeName  string
	MaskDst, PreviewDst string
	Workers             int
	// Report is called after every processed photo. It may be called concurrently.
	Report func(path string, err error)
}

// Execute runs the processor against a single photo, a URL or every
// supported photo of a directory tree. It returns the number of processed
// photos and the first error encountered.
func (p *Processor) Execute(ctx context.Context, op *Ops) (int, error) {
	src := op.Src

	// Check if source path is a local image or URL.
	if utils.IsValidUrl(src) {
		f, err := utils.DownloadImage(ctx, src)
		if err != nil {
			return 0, fmt.Errorf("failed to load the source image: %w", err)
		}
		defer os.Remove(f.Name())
		f.Close()
		src = f.Name()
	}

	var (
		info os.FileInfo
		err  error
	)
	// Check if the source is a pipe name or a regular file.
	if src == op.PipeName {
		info, err = os.Stdin.Stat()
	} else {
		info, err = os.Stat(src)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to load the source image: %w", err)
	}

	if p.Spinner != nil {
		p.Spinner.Start()
		defer p.Spinner.Stop()
	}

	switch mode := info.Mode(); {
	case mode.IsDir():
		return p.executeDir(ctx, op, src)
	case mode.IsRegular() || mode&os.ModeNamedPipe != 0 || src == op.PipeName:
		ext := filepath.Ext(op.Dst)
		if !isValidExtension(ext, outputExtensions) && op.Dst != op.PipeName {
			return 0, fmt.Errorf("%v file type not supported", ext)
		}
		err := op.process(p, src, op.Dst, op.MaskDst, op.PreviewDst)
		op.report(op.Dst, err)
		if err != nil {
			return 0, err
		}
		return 1, nil
	}
	return 0, fmt.Errorf("unsupported source %q", op.Src)
}

// executeDir processes recursively the image files from the src directory concurrently.
// The outputs mirror the layout of src; two sources mapping to the same output
// name, like x.png and x.jpg, are reported as an error.
func (p *Processor) executeDir(ctx context.Context, op *Ops, src string) (int, error) {
	for _, dir := range []string{op.Dst, op.MaskDst, op.PreviewDst} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return 0, fmt.Errorf("unable to create the destination directory: %w", err)
		}
	}

	// Limit the concurrently running workers to maxWorkers.
	workers := op.Workers
	if workers <= 0 || workers > maxWorkers {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var done int64
	// claimed maps every output name, relative to the destination, to its source.
	claimed := make(map[string]string)
	walkErr := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := gctx.Err(); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if !isValidExtension(ext, validExtensions) {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(rel, ext)
		if prev, ok := claimed[name]; ok {
			g.Go(func() error {
				err := fmt.Errorf("output name %q already used by %s", name+".png", prev)
				op.report(path, err)
				return fmt.Errorf("%s: %w", path, err)
			})
			return nil
		}
		claimed[name] = path

		g.Go(func() error {
			out := filepath.Join(op.Dst, name+".png")
			maskOut := joinIf(op.MaskDst, name+"_mask.png")
			previewOut := joinIf(op.PreviewDst, name+"_preview.png")

			err := mkdirs(out, maskOut, previewOut)
			if err == nil {
				err = op.process(p, path, out, maskOut, previewOut)
			}
			op.report(path, err)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			atomic.AddInt64(&done, 1)
			return nil
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return int(done), err
	}
	if walkErr != nil && !errors.Is(walkErr, context.Canceled) {
		return int(done), walkErr
	}
	return int(done), ctx.Err()
}

// process runs the processor over a single photo and writes all the requested outputs.
func (op *Ops) process(p *Processor, in, out, maskOut, previewOut string) (err error) {
	log := Logger().WithFields(logrus.Fields{"src": in, "dst": out})

	src, dst, err := op.pathToFile(in, out)
	if err != nil {
		return err
	}
	defer func() {
		if f, ok := src.(*os.File); ok && f != os.Stdin {
			f.Close()
		}
	}()
	defer func() {
		if f, ok := dst.(*os.File); ok && f != os.Stdout {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
			// remove the generated image file in case of an error
			if err != nil {
				os.Remove(f.Name())
			}
		}
	}()

	var photo *Raster
	if f, ok := src.(*os.File); ok && f != os.Stdin {
		photo, err = decodeFile(f)
	} else {
		photo, err = DecodeRaster(src)
	}
	if err != nil {
		return err
	}
	res, err := p.Run(photo)
	if err != nil {
		return err
	}
	if err := Encode(dst, res.Overlay.img); err != nil {
		return fmt.Errorf("could not encode the overlay: %w", err)
	}

	if maskOut != "" {
		if err := SaveFile(maskOut, ExtractGrayMask(res.Overlay)); err != nil {
			return err
		}
	}
	if previewOut != "" {
		prev, err := p.Preview(res.Photo, res.Overlay)
		if err != nil {
			return err
		}
		if err := SaveFile(previewOut, prev); err != nil {
			return err
		}
	}

	log.WithField("coverage", Coverage(res.Mask)).Debug("maskbrush: outputs written")
	return nil
}

// pathToFile converts the source and destination paths to readable and writable files.
func (op *Ops) pathToFile(in, out string) (io.Reader, io.Writer, error) {
	var (
		src io.Reader
		dst io.Writer
		err error
	)
	// Check if the source is a pipe name or a regular file.
	if in == op.PipeName {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, errors.New("`-` should be used with a pipe for stdin")
		}
		src = os.Stdin
	} else {
		src, err = os.Open(in)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open the source file: %w", err)
		}
	}

	// Check if the destination is a pipe name or a regular file.
	if out == op.PipeName {
		if term.IsTerminal(int(os.Stdout.Fd())) {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, errors.New("`-` should be used with a pipe for stdout")
		}
		dst = os.Stdout
	} else {
		dst, err = os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			if f, ok := src.(*os.File); ok && f != os.Stdin {
				f.Close()
			}
			return nil, nil, fmt.Errorf("unable to create the destination file: %w", err)
		}
	}
	return src, dst, nil
}

func (op *Ops) report(path string, err error) {
	if op.Report != nil {
		op.Report(path, err)
	}
}

// mkdirs creates the parent directories of the non-empty paths.
func mkdirs(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("unable to create the destination directory: %w", err)
		}
	}
	return nil
}

func joinIf(dir, name string) string {
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}
