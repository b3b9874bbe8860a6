// Package mosaic rebuilds a reference image as a grid of candidate tiles,
// each resampled to its cell and tinted toward the cell's dominant color.
package mosaic

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"remosaic/grid"
	"remosaic/kmeans"
	"remosaic/parallel"
	"remosaic/tiles"

	"github.com/nfnt/resize"
	"golang.org/x/image/draw"
)

// ErrEmptyCandidatePool reports a pool with no usable tiles. It is
// checked once before any cell work starts so a bad pool can never leave
// partial output behind.
var ErrEmptyCandidatePool = errors.New("candidate pool is empty")

// Options configure a Pipeline run.
type Options struct {
	Cols  int     // requested grid columns, nudged up to a divisor of the width
	Rows  int     // requested grid rows, nudged up to a divisor of the height
	Alpha float64 // blend factor in [0,1] toward each cell's dominant color

	SquareResize bool    // resize the reference to width x width before gridding
	ScaleFactor  float64 // multiply both reference dimensions; 0 disables

	Workers int // cell workers; < 1 uses all CPUs

	// Seed is the base for the per-cell random streams used to pick
	// tiles. Every cell derives its own generator from Seed and its cell
	// index, so a run's output depends only on Seed, never on worker
	// count or scheduling. 0 picks a base seed from the clock.
	Seed int64
}

// Pipeline owns one mosaic construction: plan the grid, extract and
// composite every cell into a shared output buffer, hand the finished
// buffer back. Construction is all-or-nothing; any cell failure aborts
// the run.
type Pipeline struct {
	pool *tiles.Pool
	opts Options
	seed int64
}

// NewPipeline prepares a run over the given candidate pool.
func NewPipeline(pool *tiles.Pool, opts Options) *Pipeline {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Pipeline{pool: pool, opts: opts, seed: seed}
}

// Run builds the mosaic for ref and returns the completed buffer. The
// buffer matches the reference dimensions after optional square resize
// and scaling. Cells are processed in parallel; each worker writes only
// its own cell rectangle, so the shared buffer needs no locking.
func (p *Pipeline) Run(ref image.Image) (*image.RGBA, error) {
	if p.pool.Len() == 0 {
		return nil, ErrEmptyCandidatePool
	}

	ref = p.preprocess(ref)
	bounds := ref.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	layout, err := grid.Plan(width, height, p.opts.Cols, p.opts.Rows)
	if err != nil {
		return nil, err
	}
	slog.Info("grid negotiated", "cols", layout.Cols, "rows", layout.Rows,
		"cellWidth", layout.CellWidth, "cellHeight", layout.CellHeight)

	out := image.NewRGBA(image.Rect(0, 0, width, height))
	workers := parallel.Start(p.opts.Workers)
	for idx, cell := range layout.Cells() {
		idx, cell := idx, cell
		workers.Do(func() error {
			return p.compositeCell(ref, out, cell, idx)
		})
	}
	if err := workers.Wait(true); err != nil {
		return nil, err
	}
	return out, nil
}

// compositeCell fills one cell of out: pick a candidate at random,
// resample it to the cell size, tint it toward the dominant color of the
// reference pixels under the cell. Writes stay within cell's bounds.
func (p *Pipeline) compositeCell(ref image.Image, out *image.RGBA, cell image.Rectangle, idx int) error {
	rng := rand.New(rand.NewSource(cellSeed(p.seed, idx)))

	tile := p.pool.Pick(rng)
	resized := resize.Resize(uint(cell.Dx()), uint(cell.Dy()), tile, resize.Lanczos3)

	dominant, err := kmeans.Dominant(cellPixels(ref, cell))
	if err != nil {
		return fmt.Errorf("cell %d at %v: %w", idx, cell.Min, err)
	}

	rb := resized.Bounds()
	ob := out.Bounds()
	for y := 0; y < cell.Dy(); y++ {
		for x := 0; x < cell.Dx(); x++ {
			ox, oy := cell.Min.X+x, cell.Min.Y+y
			if ox >= ob.Max.X || oy >= ob.Max.Y {
				continue
			}
			px := color.RGBAModel.Convert(resized.At(rb.Min.X+x, rb.Min.Y+y)).(color.RGBA)
			out.SetRGBA(ox, oy, Blend(px, dominant, p.opts.Alpha))
		}
	}
	return nil
}

// preprocess applies the optional square resize and uniform scale-up to
// the reference before gridding.
func (p *Pipeline) preprocess(ref image.Image) image.Image {
	bounds := ref.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if p.opts.SquareResize && width != height {
		slog.Info("squaring reference", "width", width, "height", width)
		ref = scaleTo(ref, width, width)
		height = width
	}

	if p.opts.ScaleFactor != 0 {
		w := int(math.Ceil(float64(width) * p.opts.ScaleFactor))
		h := int(math.Ceil(float64(height) * p.opts.ScaleFactor))
		slog.Info("scaling reference", "width", w, "height", h)
		ref = scaleTo(ref, w, h)
	}

	return ref
}

func scaleTo(img image.Image, width, height int) *image.RGBA {
	dest := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dest, dest.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dest
}

// cellPixels copies the reference pixels under cell into a flat buffer
// for clustering.
func cellPixels(img image.Image, cell image.Rectangle) []color.RGBA {
	offset := img.Bounds().Min
	pixels := make([]color.RGBA, 0, cell.Dx()*cell.Dy())
	for y := cell.Min.Y; y < cell.Max.Y; y++ {
		for x := cell.Min.X; x < cell.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(offset.X+x, offset.Y+y)).(color.RGBA)
			pixels = append(pixels, c)
		}
	}
	return pixels
}

// cellSeed mixes the base seed with a cell index so neighboring cells get
// uncorrelated random streams.
func cellSeed(base int64, idx int) int64 {
	x := uint64(base) + uint64(idx)*0x9e3779b97f4a7c15
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	return int64(x)
}
