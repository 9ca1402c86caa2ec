package dcl

import (
	"errors"
	"fmt"

	"github.com/opensierra/scicore/internal/scierr"
)

// maxDictType/minDictType bound the header's dictionary-size selector:
// dictType n gives a 1<<(n+6)-byte ring buffer, i.e. 1024, 2048 or
// 4096 bytes.
const (
	minDictType = 4
	maxDictType = 6

	modeBinary = 0
	modeASCII  = 1

	// lengthTerminator is the sentinel length value that ends
	// the stream instead of encoding a real back-reference.
	lengthTerminator = 519
	// maxTokenLength is the largest length an actual back-reference
	// token may encode; 519 is reserved for the terminator.
	maxTokenLength = lengthTerminator - 1
)

// Decompress inflates a DCL Implode ("imploded") byte stream, as used
// by SCI volume resources whose compression type selects DCL.
func Decompress(input []byte) ([]byte, error) {
	scope := scierr.RootScope(uint64(len(input))).Push(0, uint64(len(input)), "dcl stream")

	r := newBitReader(input)

	modeBits, err := r.readBits(8)
	if err != nil {
		return nil, scope.NewInvalidDataError(0, fmt.Errorf("reading header mode: %w", err))
	}
	mode := byte(modeBits)
	if mode != modeBinary && mode != modeASCII {
		return nil, scope.NewInvalidDataError(0, fmt.Errorf("unrecognized DCL mode byte %#02x", mode))
	}

	dictTypeBits, err := r.readBits(8)
	if err != nil {
		return nil, scope.NewInvalidDataError(1, fmt.Errorf("reading header dictionary type: %w", err))
	}
	dictType := byte(dictTypeBits)
	if dictType < minDictType || dictType > maxDictType {
		return nil, scope.NewInvalidDataError(1, fmt.Errorf("dictionary type %d out of range [%d,%d]", dictType, minDictType, maxDictType))
	}

	dict := newRingDict(uint32(1) << (dictType + 6))
	var out []byte

	for {
		bit, err := r.readBit()
		if err != nil {
			if errors.Is(err, errShortInput) {
				return nil, scope.NewInvalidDataError(uint64(r.pos), errors.New("stream ended without a terminator token"))
			}
			return nil, scope.NewInvalidDataError(uint64(r.pos), err)
		}

		if bit == 0 {
			var value byte
			if mode == modeASCII {
				sym, err := asciiTree.decode(r)
				if err != nil {
					return nil, scope.NewInvalidDataError(uint64(r.pos), fmt.Errorf("decoding ASCII literal: %w", err))
				}
				value = byte(sym)
			} else {
				v, err := r.readBits(8)
				if err != nil {
					return nil, scope.NewInvalidDataError(uint64(r.pos), fmt.Errorf("reading binary literal: %w", err))
				}
				value = byte(v)
			}
			out = append(out, value)
			dict.push(value)
			continue
		}

		lengthCode, err := lengthTree.decode(r)
		if err != nil {
			return nil, scope.NewInvalidDataError(uint64(r.pos), fmt.Errorf("decoding length code: %w", err))
		}

		var length uint32
		if lengthCode < 8 {
			length = uint32(lengthCode) + 2
		} else {
			extraBits := uint(lengthCode - 7)
			extra, err := r.readBits(extraBits)
			if err != nil {
				return nil, scope.NewInvalidDataError(uint64(r.pos), fmt.Errorf("reading length extra bits: %w", err))
			}
			length = 8 + (uint32(1) << extraBits) + extra
		}

		if length == lengthTerminator {
			break
		}

		distCode, err := distanceTree.decode(r)
		if err != nil {
			return nil, scope.NewInvalidDataError(uint64(r.pos), fmt.Errorf("decoding distance code: %w", err))
		}

		lowBits := uint(dictType)
		if length == 2 {
			lowBits = 2
		}
		extra, err := r.readBits(lowBits)
		if err != nil {
			return nil, scope.NewInvalidDataError(uint64(r.pos), fmt.Errorf("reading distance extra bits: %w", err))
		}
		offset := 1 + (uint32(distCode)<<lowBits | extra)

		if uint64(offset) > uint64(len(out)) {
			return nil, scope.NewInvalidDataError(uint64(r.pos), fmt.Errorf("back-reference offset %d exceeds %d bytes written so far", offset, len(out)))
		}

		cur := dict.cursorAt(offset)
		for i := uint32(0); i < length; i++ {
			out = append(out, cur.next())
		}
	}

	return out, nil
}
