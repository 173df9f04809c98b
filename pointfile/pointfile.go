// Package pointfile reads point files, the binary container used to feed
// point sets to a quadtree. Use the writer subpackage to create them.
package pointfile

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"runtime"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/nequadtree/quadtree/geom"
	"github.com/nequadtree/quadtree/pointfile/fbtypes"
	"github.com/nequadtree/quadtree/pointfile/writer"
)

// PointFile allows read-only handling of a point file.
type PointFile struct {
	data    []byte
	mmapped bool

	header *fbtypes.Header

	blocksOffset int
}

// New creates a new PointFile instance from a file path by memory mapping the
// file. On platforms without mmap support the file is loaded instead.
func New(path string) (*PointFile, error) {
	if !mmapSupported {
		return NewWithBehavior(path, BehaviorLoadAll)
	}
	return NewWithBehavior(path, BehaviorMMapAll)
}

// NewWithBehavior creates a new PointFile instance from a file path with the
// given behavior.
func NewWithBehavior(path string, behavior Behavior) (*PointFile, error) {
	loadAll := behavior&BehaviorLoadAll != 0
	mmapAll := behavior&BehaviorMMapAll != 0
	if loadAll && mmapAll {
		return nil, fmt.Errorf("behaviors BehaviorLoadAll and BehaviorMMapAll " +
			"are incompatible")
	}

	if !loadAll && !mmapAll {
		return nil, fmt.Errorf("either BehaviorLoadAll or BehaviorMMapAll must " +
			"be set")
	}

	pf := &PointFile{
		mmapped: mmapAll,
	}

	err := pf.mmapOrLoadFile(path, behavior)
	if err != nil {
		return nil, fmt.Errorf("error obtaining data from file: %w", err)
	}

	err = pf.setup()
	if err != nil {
		pf.Close()
		return nil, fmt.Errorf("error setting up point file: %w", err)
	}

	return pf, nil
}

// NewWithData creates a new PointFile from the given byte slice. The contents
// of the slice should be the same as a valid point file.
func NewWithData(data []byte) (*PointFile, error) {
	pf := &PointFile{
		data:    data,
		mmapped: false,
	}

	err := pf.setup()
	if err != nil {
		return nil, err
	}
	return pf, nil
}

// Header allows access to the underlying header in flatbuffer format.
func (pf *PointFile) Header() *fbtypes.Header {
	return pf.header
}

// Bounds returns the envelope stored in the header. The second return value
// is false if the file carries no envelope.
func (pf *PointFile) Bounds() (geom.Rect, bool) {
	if pf.header.EnvelopeLength() != 4 {
		return geom.Rect{}, false
	}
	return geom.NewRect(
		geom.Pt(int(pf.header.Envelope(0)), int(pf.header.Envelope(1))),
		geom.Pt(int(pf.header.Envelope(2)), int(pf.header.Envelope(3))),
	), true
}

// Points decodes all points of the file in the order they were written.
func (pf *PointFile) Points() ([]geom.Point, error) {
	if pf.data == nil {
		return nil, fmt.Errorf("point file is closed")
	}

	// Each point takes at least 16 bytes, which bounds a corrupt count.
	points := make([]geom.Point, 0, min(pf.header.PointsCount(), uint64(len(pf.data)/16)))
	for offset := pf.blocksOffset; offset < len(pf.data); {
		if len(pf.data)-offset < flatbuffers.SizeUOffsetT {
			return nil, fmt.Errorf("truncated block size at offset %d", offset)
		}
		blockSize := int(flatbuffers.GetUOffsetT(pf.data[offset:]))
		if blockSize > len(pf.data)-offset-flatbuffers.SizeUOffsetT {
			return nil, fmt.Errorf("truncated block at offset %d: %d bytes "+
				"announced", offset, blockSize)
		}

		end := offset + blockSize + flatbuffers.SizeUOffsetT
		var err error
		points, err = decodeBlock(pf.data[offset:end], points)
		if err != nil {
			return nil, fmt.Errorf("corrupt block at offset %d: %w", offset, err)
		}

		offset = end
	}

	// A zero count means the writer did not know it up front.
	if count := pf.header.PointsCount(); count != 0 && count != uint64(len(points)) {
		return nil, fmt.Errorf("header announces %d points, found %d",
			count, len(points))
	}
	return points, nil
}

// Close releases the file data. It is safe to call Close more than once.
func (pf *PointFile) Close() error {
	if pf.data == nil {
		return nil
	}

	data := pf.data
	pf.data = nil
	if !pf.mmapped {
		return nil
	}

	runtime.SetFinalizer(pf, nil)
	return munmap(data)
}

func (pf *PointFile) mmapOrLoadFile(path string, behavior Behavior) error {
	fileInfo, err := os.Stat(path)
	if err != nil {
		return err
	}

	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory")
	}

	size := fileInfo.Size()

	if size == 0 {
		return fmt.Errorf("file is empty")
	}
	if int64(size) != int64(int(size)) {
		return fmt.Errorf("file %q is too large", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if behavior&BehaviorMMapAll != 0 {
		pf.data, err = mmap(f, int(size), behavior&BehaviorPrefault != 0)
		if err != nil {
			return fmt.Errorf("error mmapping file: %w", err)
		}
		runtime.SetFinalizer(pf, (*PointFile).Close)
	} else {
		pf.data, err = io.ReadAll(f)
		if err != nil {
			return fmt.Errorf("error loading file: %w", err)
		}
	}
	return nil
}

func (pf *PointFile) setup() error {
	// Check magic bytes.
	if len(pf.data) < len(writer.MagicBytes) ||
		!bytes.Equal(pf.data[:len(writer.MagicBytes)], writer.MagicBytes) {
		return fmt.Errorf("not a point file: invalid magic bytes")
	}

	// Increment offset past magic bytes.
	offset := len(writer.MagicBytes)

	if len(pf.data)-offset < flatbuffers.SizeUOffsetT {
		return fmt.Errorf("truncated header")
	}

	// Read header size.
	headerSize := int(flatbuffers.GetUOffsetT(pf.data[offset:]))
	if headerSize > len(pf.data)-offset-flatbuffers.SizeUOffsetT {
		return fmt.Errorf("truncated header: %d bytes announced", headerSize)
	}

	// Increment offset past header.
	pf.blocksOffset = offset + headerSize + flatbuffers.SizeUOffsetT

	header, err := decodeHeader(pf.data[offset:pf.blocksOffset])
	if err != nil {
		return fmt.Errorf("corrupt header: %w", err)
	}
	pf.header = header

	return nil
}

// decodeBlock appends the points of the size prefixed block in buf to points.
// The flatbuffers accessors index buf without bounds checks of their own, so
// an offset pointing outside buf surfaces as a recovered panic.
func decodeBlock(buf []byte, points []geom.Point) (_ []geom.Point, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	var fbp fbtypes.Point
	block := fbtypes.GetSizePrefixedRootAsBlock(buf, 0)
	for i := 0; i < block.PointsLength(); i++ {
		block.Points(&fbp, i)
		points = append(points, geom.Pt(int(fbp.X()), int(fbp.Y())))
	}
	return points, nil
}

// decodeHeader reads every field of the size prefixed header in buf once, so
// later accessor calls cannot run outside buf.
func decodeHeader(buf []byte) (header *fbtypes.Header, err error) {
	defer func() {
		if r := recover(); r != nil {
			header, err = nil, fmt.Errorf("%v", r)
		}
	}()

	header = fbtypes.GetSizePrefixedRootAsHeader(buf, 0)
	header.Name()
	header.Title()
	header.Description()
	header.Metadata()
	header.PointsCount()
	header.BlockSize()
	for i := 0; i < header.EnvelopeLength(); i++ {
		header.Envelope(i)
	}
	return header, nil
}
