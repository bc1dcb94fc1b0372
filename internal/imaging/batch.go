package imaging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// SupportedExtensions lists the file extensions FindImages accepts. Matching
// is case-insensitive.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif"}

// Batch is an ordered group of screenshots that is recognized in one OCR call.
//
// A batch of one image is sent as-is. Larger batches are stitched vertically
// into a composite first.
type Batch struct {
	// Index is the zero-based position of the batch in the run.
	Index int

	// Dir is the directory holding the source files.
	Dir string

	// Names are the source file names, in reading order.
	Names []string
}

// Paths returns the full paths of the batch's source files.
func (b Batch) Paths() []string {
	paths := make([]string, len(b.Names))
	for i, name := range b.Names {
		paths[i] = filepath.Join(b.Dir, name)
	}
	return paths
}

// Stitched reports whether the batch needs a composite image.
func (b Batch) Stitched() bool {
	return len(b.Names) > 1
}

// ID identifies the batch in logs, results and review notes. Single images
// use their file name; stitched batches use "stitched_<first>_<last>".
func (b Batch) ID() string {
	if len(b.Names) == 0 {
		return ""
	}
	if !b.Stitched() {
		return b.Names[0]
	}
	return fmt.Sprintf("stitched_%s_%s", b.Names[0], b.Names[len(b.Names)-1])
}

// CompositeName is the file name of the stitched composite, derived from the
// first and last source file stems.
func (b Batch) CompositeName() string {
	if len(b.Names) == 0 {
		return ""
	}
	return fmt.Sprintf("stitched_%s_%s.png", stem(b.Names[0]), stem(b.Names[len(b.Names)-1]))
}

// FindImages lists the supported image files directly inside dir, sorted
// with SortImageNames. Subdirectories are not searched.
//
// # Errors
//
//   - Returns the os error if dir cannot be read
//   - Returns ErrNoImagesFound if dir holds no supported images
func FindImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read image directory: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !IsSupportedImage(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}

	if len(names) == 0 {
		return nil, ErrNoImagesFound
	}

	SortImageNames(names)
	return names, nil
}

// IsSupportedImage reports whether name has one of SupportedExtensions.
func IsSupportedImage(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range SupportedExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// SortImageNames sorts names in place.
//
// When every stem parses as an integer the names are ordered by that value,
// so "2.png" comes before "10.png". Otherwise the names are sorted
// lexicographically.
func SortImageNames(names []string) {
	keys := make(map[string]int, len(names))
	for _, name := range names {
		n, err := strconv.Atoi(stem(name))
		if err != nil {
			sort.Strings(names)
			return
		}
		keys[name] = n
	}

	sort.SliceStable(names, func(i, j int) bool {
		return keys[names[i]] < keys[names[j]]
	})
}

// GroupImages splits names into consecutive batches of at most size images,
// preserving order. A size below one is treated as one.
func GroupImages(dir string, names []string, size int) []Batch {
	if size < 1 {
		size = 1
	}

	batches := make([]Batch, 0, (len(names)+size-1)/size)
	for start := 0; start < len(names); start += size {
		end := min(start+size, len(names))
		batches = append(batches, Batch{
			Index: len(batches),
			Dir:   dir,
			Names: append([]string(nil), names[start:end]...),
		})
	}
	return batches
}

func stem(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
