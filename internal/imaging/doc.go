// Package imaging prepares screenshots for OCR.
//
// This package discovers the screenshots in an input directory, orders them,
// groups them into batches, stitches multi-image batches into a single tall
// composite and checks images against the dimension limits of an OCR backend.
// All operations work with standard Go image.Image types and use a coordinate
// system where (0,0) is at the top-left corner.
//
// # Ordering
//
// Screenshots are usually saved as 1.png, 2.png, ... by capture tools. When
// every file stem is an integer the files are ordered numerically, otherwise
// lexicographically. See SortImageNames.
//
// # Stitching
//
// A batch of N images becomes one composite whose width is the widest input
// and whose height is the sum of all input heights. Inputs are left-aligned
// on a solid background (white by default) in reading order:
//
//	+--------+
//	| 1.png  |
//	+------+-+
//	|2.png |
//	+------+---+
//	| 3.png    |
//	+----------+
//
// Composites are written to a temporary directory as
// stitched_<first>_<last>.png and removed by the caller once recognized.
//
// # Error Handling
//
// Failures are reported with typed errors so callers can classify them per
// batch:
//   - *ImageOpenError: file unreadable or not a decodable image
//   - *ImageTooLargeError: image exceeds a backend's width or height limit
//   - ErrNoImagesFound: directory holds no supported images
package imaging
