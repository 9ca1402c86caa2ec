package block

import "io"

// OutputPart is one element of an OutputBlock: a byte source of known
// size that can stream itself to a writer.
type OutputPart interface {
	Size() uint64
	WriteTo(w io.Writer) error
}

// bytesPart is an OutputPart backed by an in-memory byte slice.
type bytesPart struct{ data []byte }

// BytesPart wraps a byte slice as an OutputPart.
func BytesPart(data []byte) OutputPart { return bytesPart{data: data} }

func (p bytesPart) Size() uint64 { return uint64(len(p.data)) }

func (p bytesPart) WriteTo(w io.Writer) error {
	_, err := w.Write(p.data)
	return err
}

// blockPart is an OutputPart backed by a Block, streamed without fully
// materializing it up front.
type blockPart struct{ b Block }

// BlockPart wraps a Block as an OutputPart.
func BlockPart(b Block) OutputPart { return blockPart{b: b} }

func (p blockPart) Size() uint64 { return p.b.Size() }

func (p blockPart) WriteTo(w io.Writer) error {
	r, err := p.b.OpenReader()
	if err != nil {
		return err
	}
	_, err = io.Copy(w, r)
	return err
}

// OutputBlock is a write-side concatenation of byte suppliers with a
// known total size. It is written to a sink by walking its
// parts in order; none of it is materialized until WriteTo is called.
type OutputBlock struct {
	parts []OutputPart
}

// NewOutputBlock builds an OutputBlock out of the given parts, in
// order.
func NewOutputBlock(parts ...OutputPart) *OutputBlock {
	return &OutputBlock{parts: parts}
}

// Append adds a part to the end of the concatenation.
func (o *OutputBlock) Append(part OutputPart) {
	o.parts = append(o.parts, part)
}

// Size returns the total size of the concatenation.
func (o *OutputBlock) Size() uint64 {
	var total uint64
	for _, p := range o.parts {
		total += p.Size()
	}
	return total
}

// WriteTo streams every part to w in order.
func (o *OutputBlock) WriteTo(w io.Writer) error {
	for _, p := range o.parts {
		if err := p.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}
