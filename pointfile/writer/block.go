package writer

import (
	"io"

	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/nequadtree/quadtree/geom"
	"github.com/nequadtree/quadtree/pointfile/fbtypes"
)

// Block is a run of consecutive points stored as one size-prefixed
// flatbuffer.
type Block struct {
	builder *flatbuffers.Builder

	points []geom.Point
}

// NewBlock creates an empty block that serializes into builder.
func NewBlock(builder *flatbuffers.Builder) *Block {
	return &Block{
		builder: builder,
	}
}

// SetPoints sets the points of the block in write order.
func (b *Block) SetPoints(points []geom.Point) *Block {
	b.points = points
	return b
}

// Build serializes the block and returns the table offset.
func (b *Block) Build() flatbuffers.UOffsetT {
	if b.builder == nil {
		return 0
	}

	fbtypes.BlockStartPointsVector(b.builder, len(b.points))
	for i := len(b.points) - 1; i >= 0; i-- {
		fbtypes.CreatePoint(b.builder, int64(b.points[i].X), int64(b.points[i].Y))
	}
	pointsOffset := b.builder.EndVector(len(b.points))

	fbtypes.BlockStart(b.builder)
	fbtypes.BlockAddPoints(b.builder, pointsOffset)

	return fbtypes.BlockEnd(b.builder)
}

// writeBlock finishes the block and writes it, size prefix included. The
// builder is reset afterwards so it can be reused for the next block.
func writeBlock(block *Block, w io.Writer) (int, error) {
	blockOffset := block.Build()
	block.builder.FinishSizePrefixed(blockOffset)
	n, err := w.Write(block.builder.FinishedBytes())
	block.builder.Reset()
	return n, err
}
