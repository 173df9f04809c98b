package writer

import (
	"bytes"
	"fmt"
	"io"
	"os"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/nequadtree/quadtree/geom"
)

// MagicBytes is the identifier sequence for a point file.
var MagicBytes = []byte{0x71, 0x70, 0x74, 0x01, 0x71, 0x70, 0x74, 0x00}

// DefaultBlockSize is the number of points stored per block unless
// WithBlockSize is used.
const DefaultBlockSize = 1024

// Writer is a type that allows constructing a valid point file that has a
// Header followed by blocks of points.
type Writer struct {
	header *Header

	pointGenerator PointGenerator

	headerUpdater HeaderUpdater

	computeEnvelope bool

	inMemory  bool
	blockSize int
}

// Option configures a Writer.
type Option func(*Writer)

// WithMemory stages blocks in memory instead of a temporary file when the
// header has to be written after all points were generated.
func WithMemory() Option {
	return func(w *Writer) {
		w.inMemory = true
	}
}

// WithBlockSize sets the number of points per block. Values outside
// [1, 65535] are ignored.
func WithBlockSize(n int) Option {
	return func(w *Writer) {
		if n >= 1 && n <= 0xFFFF {
			w.blockSize = n
		}
	}
}

// NewWriter returns a new writer instance that will write a point file with
// the given Header, a PointGenerator that will provide the points to be
// written and a HeaderUpdater that will be used to update the Header after
// all points have been generated. If computeEnvelope is set the envelope and
// point count of the header are derived from the generated points.
func NewWriter(header *Header, computeEnvelope bool,
	pointGenerator PointGenerator, headerUpdater HeaderUpdater, opts ...Option) *Writer {
	w := &Writer{
		header:          header,
		pointGenerator:  pointGenerator,
		headerUpdater:   headerUpdater,
		computeEnvelope: computeEnvelope,
		blockSize:       DefaultBlockSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// writeBlocks drains the generator into blocks written to dst. It returns
// the number of bytes written, the number of points and their extent.
func (w *Writer) writeBlocks(dst io.Writer) (int, uint64, geom.Rect, error) {
	total, count := 0, uint64(0)
	var extent geom.Rect

	block := NewBlock(flatbuffers.NewBuilder(0))
	points := make([]geom.Point, 0, w.blockSize)
	flush := func() error {
		if len(points) == 0 {
			return nil
		}
		n, err := writeBlock(block.SetPoints(points), dst)
		total += n
		points = points[:0]
		return err
	}

	for p, ok := w.pointGenerator.Generate(); ok; p, ok = w.pointGenerator.Generate() {
		if count == 0 {
			extent = geom.NewRect(p, p)
		} else {
			extent.Expand(p)
		}
		count++

		points = append(points, p)
		if len(points) == w.blockSize {
			if err := flush(); err != nil {
				return total, count, extent, err
			}
		}
	}
	err := flush()
	return total, count, extent, err
}

func (w *Writer) writeHeader(ioWriter io.Writer) (int, error) {
	headerOffset := w.header.Build()
	w.header.builder.FinishSizePrefixed(headerOffset)
	return ioWriter.Write(w.header.builder.FinishedBytes())
}

// Write writes the point file to the given io.Writer.
func (w *Writer) Write(ioWriter io.Writer) (int, error) {
	totalBytesWritten := 0

	// Write magic bytes to destination file.
	n, err := ioWriter.Write(MagicBytes)
	totalBytesWritten += n
	if err != nil {
		return totalBytesWritten, err
	}

	w.header.SetBlockSize(uint16(w.blockSize))

	if !w.computeEnvelope && w.headerUpdater == nil {
		// Nothing in the header depends on the points, so it is written
		// as-is and the blocks are streamed right after it.
		n, err = w.writeHeader(ioWriter)
		totalBytesWritten += n
		if err != nil {
			return totalBytesWritten, err
		}

		n, _, _, err = w.writeBlocks(ioWriter)
		totalBytesWritten += n
		return totalBytesWritten, err
	}

	// The header has to be adjusted after all points have been seen, so the
	// blocks are staged first.
	var staged io.ReadWriter
	if w.inMemory {
		staged = &bytes.Buffer{}
	} else {
		tmpFile, err := os.CreateTemp("", "pointfile_blocks_")
		if err != nil {
			return totalBytesWritten, err
		}
		defer tmpFile.Close()
		defer os.Remove(tmpFile.Name())
		staged = tmpFile
	}

	_, count, extent, err := w.writeBlocks(staged)
	if err != nil {
		return totalBytesWritten, fmt.Errorf("error staging blocks: %w", err)
	}

	if w.computeEnvelope {
		if count > 0 {
			w.header.SetEnvelope(extent)
		}
		w.header.SetPointsCount(count)
	}

	// Call our header updater if we have one.
	if w.headerUpdater != nil {
		w.headerUpdater.Update(w.header)
	}

	n, err = w.writeHeader(ioWriter)
	totalBytesWritten += n
	if err != nil {
		return totalBytesWritten, err
	}

	if f, ok := staged.(*os.File); ok {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return totalBytesWritten, err
		}
	}

	// Copy blocks from the staging area to the destination.
	written, err := io.Copy(ioWriter, staged)
	totalBytesWritten += int(written)
	return totalBytesWritten, err
}
