package dcl

import "container/heap"

// tree is a canonical Huffman prefix code over a fixed symbol alphabet
// 0..n-1, built once at package init from a static weight table (one
// each for token lengths, back-reference distances, and ASCII
// literals). Decoding walks the tree one bitReader bit at a time;
// encoding looks up the precomputed bit pattern for a symbol.
type tree struct {
	root  *node
	codes []code // indexed by symbol
}

type node struct {
	sym         int
	left, right *node
}

func (n *node) leaf() bool { return n.left == nil && n.right == nil }

type code struct {
	bits uint32
	n    uint
}

// heapItem/nodeHeap implement the standard Huffman merge: repeatedly
// combine the two lowest-weight nodes until one remains.
type heapItem struct {
	weight int
	n      *node
}

type nodeHeap []heapItem

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].weight < h[j].weight }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(heapItem)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// buildTree constructs a canonical Huffman tree from a per-symbol
// weight table. Every weight must be positive. The merge produces a
// full binary tree (every internal node has exactly two children), so
// the resulting code is always a complete prefix code.
func buildTree(weights []int) *tree {
	h := make(nodeHeap, len(weights))
	for sym, w := range weights {
		h[sym] = heapItem{weight: w, n: &node{sym: sym}}
	}
	heap.Init(&h)
	for h.Len() > 1 {
		a := heap.Pop(&h).(heapItem)
		b := heap.Pop(&h).(heapItem)
		merged := &node{left: a.n, right: b.n}
		heap.Push(&h, heapItem{weight: a.weight + b.weight, n: merged})
	}
	root := h[0].n

	t := &tree{root: root, codes: make([]code, len(weights))}
	var walk func(n *node, bits uint32, depth uint)
	walk = func(n *node, bits uint32, depth uint) {
		if n.leaf() {
			t.codes[n.sym] = code{bits: bits, n: depth}
			return
		}
		walk(n.left, bits, depth+1)
		walk(n.right, bits|(1<<depth), depth+1)
	}
	walk(root, 0, 0)
	return t
}

// decode walks the tree bit by bit until it reaches a leaf, returning
// the decoded symbol.
func (t *tree) decode(r *bitReader) (int, error) {
	n := t.root
	for !n.leaf() {
		bit, err := r.readBit()
		if err != nil {
			return 0, err
		}
		if bit == 0 {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.sym, nil
}

// encode writes the prefix code for sym to w.
func (t *tree) encode(w *bitWriter, sym int) {
	c := t.codes[sym]
	w.writeBits(c.bits, c.n)
}
