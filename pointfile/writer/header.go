package writer

import (
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/nequadtree/quadtree/geom"
	"github.com/nequadtree/quadtree/pointfile/fbtypes"
)

// Header is the writer responsible for writing the header of a point file. It
// handles all the flatbuffer details.
type Header struct {
	builder *flatbuffers.Builder

	name        string
	envelope    []int64
	pointsCount uint64
	blockSize   uint16
	title       string
	description string
	metadata    string
}

// NewHeader creates an empty header that serializes into builder.
func NewHeader(builder *flatbuffers.Builder) *Header {
	return &Header{
		builder: builder,
	}
}

// SetName sets the name of the point set.
func (h *Header) SetName(name string) *Header {
	h.name = name
	return h
}

// SetEnvelope records the rectangle covering all points of the file.
func (h *Header) SetEnvelope(r geom.Rect) *Header {
	h.envelope = []int64{
		int64(r.Low.X), int64(r.Low.Y),
		int64(r.High.X), int64(r.High.Y),
	}
	return h
}

// SetPointsCount sets the number of points. Zero means unknown.
func (h *Header) SetPointsCount(pointsCount uint64) *Header {
	h.pointsCount = pointsCount
	return h
}

// SetBlockSize sets the maximum number of points per block.
func (h *Header) SetBlockSize(blockSize uint16) *Header {
	h.blockSize = blockSize
	return h
}

// SetTitle sets a human readable title.
func (h *Header) SetTitle(title string) *Header {
	h.title = title
	return h
}

// SetDescription sets a free form description.
func (h *Header) SetDescription(description string) *Header {
	h.description = description
	return h
}

// SetMetadata sets arbitrary metadata, usually JSON.
func (h *Header) SetMetadata(metadata string) *Header {
	h.metadata = metadata
	return h
}

// Build serializes the header into its builder and returns the table offset.
func (h *Header) Build() flatbuffers.UOffsetT {
	if h.builder == nil {
		return 0
	}

	nameOffset := maybeCreateString(h.builder, h.name)

	fbtypes.HeaderStartEnvelopeVector(h.builder, len(h.envelope))
	for i := len(h.envelope) - 1; i >= 0; i-- {
		h.builder.PrependInt64(h.envelope[i])
	}
	envelopeOffset := h.builder.EndVector(len(h.envelope))

	titleOffset := maybeCreateString(h.builder, h.title)
	descriptionOffset := maybeCreateString(h.builder, h.description)
	metadataOffset := maybeCreateString(h.builder, h.metadata)

	fbtypes.HeaderStart(h.builder)

	fbtypes.HeaderAddName(h.builder, nameOffset)
	fbtypes.HeaderAddEnvelope(h.builder, envelopeOffset)
	fbtypes.HeaderAddPointsCount(h.builder, h.pointsCount)
	fbtypes.HeaderAddBlockSize(h.builder, h.blockSize)
	fbtypes.HeaderAddTitle(h.builder, titleOffset)
	fbtypes.HeaderAddDescription(h.builder, descriptionOffset)
	fbtypes.HeaderAddMetadata(h.builder, metadataOffset)

	return fbtypes.HeaderEnd(h.builder)
}

// Builder returns the builder the header serializes into.
func (h *Header) Builder() *flatbuffers.Builder {
	return h.builder
}
