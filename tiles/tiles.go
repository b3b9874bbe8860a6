// Package tiles loads the candidate tile images a mosaic is built from.
package tiles

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"

	"remosaic/parallel"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/vp8l"
	_ "golang.org/x/image/webp"
)

// Pool is an immutable collection of decoded candidate images. It is
// built once by Load and may be shared freely across workers afterwards.
type Pool struct {
	images []image.Image
}

// Len returns the number of candidates.
func (p *Pool) Len() int {
	return len(p.images)
}

// Pick draws one candidate uniformly at random, with replacement.
func (p *Pool) Pick(rng *rand.Rand) image.Image {
	return p.images[rng.Intn(len(p.images))]
}

// NewPool wraps pre-decoded images, mainly for tests.
func NewPool(images []image.Image) *Pool {
	return &Pool{images: images}
}

// Load decodes every image in dir, skipping subdirectories, any file
// named exclude (the reference image must not tile itself) and files
// that fail to decode, which are logged and dropped: the pool only needs
// to be non-empty overall. Decoding fans out on the given workers; each
// task appends its result under a shared lock.
func Load(dir, exclude string, worker parallel.WorkerFunc, wait parallel.WaitFunc) (*Pool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read tile folder %q: %w", dir, err)
	}

	var (
		mu     sync.Mutex
		images []image.Image
	)
	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == exclude {
			continue
		}

		worker(func(name string) parallel.TaskFunc {
			return func() error {
				path := filepath.Join(dir, name)
				img, err := decode(path)
				if err != nil {
					slog.Warn("skipping candidate", "file", path, "error", err)
					return nil
				}
				mu.Lock()
				images = append(images, img)
				mu.Unlock()
				return nil
			}
		}(entry.Name()))
	}

	if err := wait(true); err != nil {
		return nil, err
	}
	return &Pool{images: images}, nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open image: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Error("could not close image", "file", path, "error", closeErr)
		}
	}()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}
	return img, nil
}
