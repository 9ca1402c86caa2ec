package dcl

import (
	"math"

	"github.com/opensierra/scicore/internal/scierr"
)

// CompressOptions tunes the greedy match finder. The zero value is a
// reasonable default.
type CompressOptions struct {
	// DictType selects the back-reference window: 4, 5 or 6 for a
	// 1024/2048/4096-byte dictionary. Zero means "use the largest."
	DictType byte
	// MaxChainDepth bounds how many candidate positions are tried per
	// byte value before settling for the best match found so far.
	// Zero means a built-in default.
	MaxChainDepth int
	// SufficientLength stops the search early once a match at least
	// this long is found. Zero means a built-in default.
	SufficientLength int
	// ASCII selects ASCII-biased literal encoding (header mode 1)
	// instead of raw binary literals.
	ASCII bool
}

const (
	defaultMaxChainDepth    = 32
	defaultSufficientLength = 128

	// shortMatchLowBits is the fixed low-bit width used for a
	// length-2 back-reference's distance, which bounds how
	// far away a 2-byte match may point.
	shortMatchLowBits = 2
)

func (o CompressOptions) normalized() CompressOptions {
	if o.DictType == 0 {
		o.DictType = maxDictType
	}
	if o.MaxChainDepth == 0 {
		o.MaxChainDepth = defaultMaxChainDepth
	}
	if o.SufficientLength == 0 {
		o.SufficientLength = defaultSufficientLength
	}
	return o
}

// Compress packs input into a DCL Implode stream that Decompress will
// invert exactly. The match finder walks a byte-indexed MRU chain of
// recently-seen positions and takes the longest match found within its
// budget, falling back to a literal.
func Compress(input []byte, opts CompressOptions) ([]byte, error) {
	opts = opts.normalized()
	if opts.DictType < minDictType || opts.DictType > maxDictType {
		return nil, scierr.NewConversionError("dictType", opts.DictType)
	}
	if len(input) > math.MaxInt32 {
		return nil, scierr.NewConversionError("DCL input length", len(input))
	}

	w := newBitWriter()
	mode := byte(modeBinary)
	if opts.ASCII {
		mode = modeASCII
	}
	w.writeBits(uint32(mode), 8)
	w.writeBits(uint32(opts.DictType), 8)

	dictSize := uint32(1) << (opts.DictType + 6)
	chains := newMatchChains(opts.MaxChainDepth)

	pos := 0
	for pos < len(input) {
		length, distance := chains.findMatch(input, pos, dictSize, opts.SufficientLength)
		if length >= 2 {
			w.writeBit(1)
			encodeLength(w, uint32(length))
			encodeDistance(w, uint32(distance), uint32(length), opts.DictType)
			for i := 0; i < length; i++ {
				chains.record(input, pos+i)
			}
			pos += length
			continue
		}

		w.writeBit(0)
		value := input[pos]
		if mode == modeASCII {
			asciiTree.encode(w, int(value))
		} else {
			w.writeBits(uint32(value), 8)
		}
		chains.record(input, pos)
		pos++
	}

	w.writeBit(1)
	encodeLength(w, lengthTerminator)

	return w.flush(), nil
}

// encodeLength is the inverse of the length decode in Decompress.
func encodeLength(w *bitWriter, length uint32) {
	if length < 10 {
		lengthTree.encode(w, int(length-2))
		return
	}
	for n := uint(1); n <= 8; n++ {
		base := uint32(8) + (uint32(1) << n)
		top := base + (uint32(1) << n) - 1
		if length >= base && length <= top {
			lengthTree.encode(w, int(n+7))
			w.writeBits(length-base, n)
			return
		}
	}
}

// encodeDistance is the inverse of the distance decode in Decompress.
func encodeDistance(w *bitWriter, offset, length uint32, dictType byte) {
	lowBits := uint(dictType)
	if length == 2 {
		lowBits = shortMatchLowBits
	}
	val := offset - 1
	code := val >> lowBits
	extra := val & ((uint32(1) << lowBits) - 1)
	distanceTree.encode(w, int(code))
	w.writeBits(extra, lowBits)
}

// matchChains tracks, for each byte value, the most recently seen
// positions where that byte occurred (newest first), bounded to a
// fixed depth — the "byte-indexed MRU chain" match finder.
type matchChains struct {
	chains   [256][]int
	maxDepth int
}

func newMatchChains(maxDepth int) *matchChains {
	return &matchChains{maxDepth: maxDepth}
}

func (c *matchChains) record(data []byte, pos int) {
	b := data[pos]
	chain := c.chains[b]
	chain = append([]int{pos}, chain...)
	if len(chain) > c.maxDepth {
		chain = chain[:c.maxDepth]
	}
	c.chains[b] = chain
}

// findMatch returns the longest back-reference available at pos
// within dictSize bytes, or (0,0) if none is worth encoding.
func (c *matchChains) findMatch(data []byte, pos int, dictSize uint32, sufficient int) (length, distance int) {
	if pos >= len(data) {
		return 0, 0
	}
	candidates := c.chains[data[pos]]
	maxLen := len(data) - pos
	if maxLen > maxTokenLength {
		maxLen = maxTokenLength
	}

	bestLen, bestDist := 0, 0
	for _, cand := range candidates {
		dist := pos - cand
		if dist < 1 || uint32(dist) > dictSize {
			continue
		}
		matchLen := 0
		for matchLen < maxLen && data[cand+matchLen] == data[pos+matchLen] {
			matchLen++
		}
		// A length-2 match can only encode distances reachable with
		// shortMatchLowBits extra bits on top of the distance tree's
		// symbol range; reject ones that don't fit rather than emit
		// an unrepresentable token.
		if matchLen == 2 && uint32(dist) > maxShortMatchDistance {
			continue
		}
		if matchLen > bestLen {
			bestLen, bestDist = matchLen, dist
		}
		if bestLen >= sufficient {
			break
		}
	}
	if bestLen < 2 {
		return 0, 0
	}
	return bestLen, bestDist
}
