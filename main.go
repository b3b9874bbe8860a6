package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"remosaic/mosaic"
	"remosaic/parallel"
	"remosaic/tiles"

	"github.com/alecthomas/kong"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

type CLICmd struct {
	Dir     string  `short:"d" help:"Folder containing candidate tile images" required:""`
	Ref     string  `short:"p" help:"Reference image to recreate" required:""`
	Cols    int     `short:"c" help:"Grid columns; nudged up to the next divisor of the image width" default:"70"`
	Rows    int     `short:"r" help:"Grid rows; nudged up to the next divisor of the image height" default:"70"`
	Alpha   float64 `short:"a" help:"Blend factor toward each cell's dominant color, 0 to 1" default:"0.7"`
	Verbose bool    `short:"v" help:"Log pipeline progress" default:"true" negatable:""`
	Resize  bool    `help:"Square the reference image to width x width before gridding" default:"true" negatable:""`
	Scale   float64 `short:"s" help:"Scale both reference dimensions by this factor; 0 disables" default:"0"`
	Workers int     `help:"Worker count for loading and compositing; 0 uses all CPUs" default:"0"`
}

func (c *CLICmd) Validate(kctx *kong.Context) error {
	dir, err := filepath.Abs(c.Dir)
	var info os.FileInfo
	if err == nil {
		if info, err = os.Stat(dir); err == nil && !info.IsDir() {
			err = fmt.Errorf("not a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid tile folder %q: %w", c.Dir, err)
	}
	c.Dir = dir

	ref, err := filepath.Abs(c.Ref)
	if err == nil {
		if info, err = os.Stat(ref); err == nil && info.IsDir() {
			err = fmt.Errorf("is a directory")
		}
	}
	if err != nil {
		return fmt.Errorf("invalid reference image %q: %w", c.Ref, err)
	}
	c.Ref = ref

	if (c.Cols < 1) || (c.Rows < 1) {
		return fmt.Errorf("grid must have positive columns and rows, got %dx%d", c.Cols, c.Rows)
	}
	if (c.Alpha < 0) || (c.Alpha > 1) {
		return fmt.Errorf("alpha must be within [0, 1], got %g", c.Alpha)
	}
	if c.Scale < 0 {
		return fmt.Errorf("scale must not be negative, got %g", c.Scale)
	}
	return nil
}

func (c *CLICmd) Run() error {
	start := time.Now()

	slog.Info("pulling candidate images", "dir", c.Dir)
	loaders := parallel.Start(c.Workers)
	pool, err := tiles.Load(c.Dir, filepath.Base(c.Ref), loaders.Do, loaders.Wait)
	if err != nil {
		return err
	}
	slog.Info("candidate pool ready", "tiles", pool.Len())

	ref, err := decodeReference(c.Ref)
	if err != nil {
		return err
	}
	slog.Info("reference loaded", "file", c.Ref,
		"width", ref.Bounds().Dx(), "height", ref.Bounds().Dy())

	pipeline := mosaic.NewPipeline(pool, mosaic.Options{
		Cols:         c.Cols,
		Rows:         c.Rows,
		Alpha:        c.Alpha,
		SquareResize: c.Resize,
		ScaleFactor:  c.Scale,
		Workers:      c.Workers,
	})
	out, err := pipeline.Run(ref)
	if err != nil {
		return err
	}

	dest := filepath.Join(filepath.Dir(c.Ref), "output.png")
	if err := save(out, dest); err != nil {
		return err
	}

	slog.Info("mosaic complete", "output", dest, "elapsed", time.Since(start))
	return nil
}

func main() {
	var cmd CLICmd
	kctx := kong.Parse(&cmd,
		kong.Name("remosaic"),
		kong.Description("Recreate a reference image as a photomosaic of tile images."))

	level := slog.LevelWarn
	if cmd.Verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	kctx.FatalIfErrorf(kctx.Run())
}

func decodeReference(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open reference image %q: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close reference image", "file", path, "error", closeErr)
		}
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode reference image %q: %w", path, err)
	}
	return img, nil
}

// save encodes the finished mosaic next to the reference image, writing
// through a temp file so a failed encode never leaves a partial output.
func save(img image.Image, dest string) (err error) {
	outFile, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest))
	if err != nil {
		return fmt.Errorf("could not create temporary destination %q: %w", dest, err)
	}
	canRename := false
	defer func() {
		if defErr := outFile.Sync(); defErr != nil && err == nil {
			err = fmt.Errorf("could not flush temporary destination %q: %w", dest, defErr)
		}
		if defErr := outFile.Close(); defErr != nil && err == nil {
			err = fmt.Errorf("could not close temporary destination %q: %w", dest, defErr)
		}

		if canRename && err == nil {
			if defErr := os.Rename(outFile.Name(), dest); defErr != nil {
				err = fmt.Errorf("could not rename destination file %q: %w", dest, defErr)
			}
		} else {
			if defErr := os.Remove(outFile.Name()); defErr != nil {
				slog.Error("could not remove temporary destination", "file", outFile.Name(), "error", defErr)
			}
		}
	}()

	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err = enc.Encode(outFile, img); err != nil {
		return fmt.Errorf("could not encode PNG destination %q: %w", dest, err)
	}

	canRename = true
	return err
}
