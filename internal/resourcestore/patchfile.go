package resourcestore

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/opensierra/scicore/internal/block"
	"github.com/opensierra/scicore/internal/restype"
	"github.com/opensierra/scicore/internal/scierr"
)

// compositeExtHeaderSize is the fixed size of the h==128 extended
// header.
const compositeExtHeaderSize = 24

// patchCandidate reports whether name (a base filename, no directory
// component) could name a patch file, and if so its resource id
// (a decimal stem in 0..=65535 plus a canonical resource extension).
func patchCandidate(name string) (restype.Id, bool) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if ext == "" || stem == "" {
		return restype.Id{}, false
	}
	num, err := strconv.ParseUint(stem, 10, 16)
	if err != nil {
		return restype.Id{}, false
	}
	t, err := restype.FromExt(ext)
	if err != nil {
		return restype.Id{}, false
	}
	return restype.New(t, uint16(num)), true
}

// parsePatchFile decodes a patch file's bytes into a Resource, given
// the resource id implied by its filename.
func parsePatchFile(id restype.Id, b block.Block) (Resource, error) {
	scope := scierr.RootScope(b.Size()).Push(0, b.Size(), fmt.Sprintf("patch file %v", id))

	if b.Size() < 2 {
		return Resource{}, scope.NewInvalidDataError(0, fmt.Errorf("patch file shorter than its 2-byte base header"))
	}
	base, err := b.Sub(0, 2).OpenMem()
	if err != nil {
		return Resource{}, scope.NewInvalidDataError(0, err)
	}
	typeByte, headerSize := base.Bytes()[0], base.Bytes()[1]

	t, err := restype.FromByte(typeByte)
	if err != nil {
		return Resource{}, scope.NewInvalidDataError(0, err)
	}
	if t != id.Type {
		return Resource{}, scope.NewInvalidDataError(0, fmt.Errorf("patch resource type %v does not match filename-implied type %v", t, id.Type))
	}

	rest := b.SubFrom(2)

	if headerSize == 128 {
		if rest.Size() < compositeExtHeaderSize {
			return Resource{}, scope.NewInvalidDataError(2, fmt.Errorf("patch file too short for extended header"))
		}
		extHeaderBlock := rest.Sub(0, compositeExtHeaderSize)
		extHeader, err := extHeaderBlock.OpenMem()
		if err != nil {
			return Resource{}, scope.NewInvalidDataError(2, err)
		}
		realHeaderSize := uint64(extHeader.Bytes()[1])
		afterExtHeader := rest.SubFrom(compositeExtHeaderSize)
		extraLen := 22 + realHeaderSize
		if afterExtHeader.Size() < extraLen {
			return Resource{}, scope.NewInvalidDataError(2+compositeExtHeaderSize, fmt.Errorf("patch file too short for extended extra data"))
		}
		extraBlock := afterExtHeader.Sub(0, extraLen)
		extraBytes, err := extraBlock.OpenMem()
		if err != nil {
			return Resource{}, scope.NewInvalidDataError(2+compositeExtHeaderSize, err)
		}
		data := afterExtHeader.SubFrom(extraLen)

		return Resource{
			ID: id,
			Contents: ResourceContents{
				Provenance: FromPatch,
				Source:     data.ToLazy(),
				Extra: &ExtraData{
					Composite: &CompositeExtraData{
						ExtHeader:  extHeader.Bytes(),
						ExtraBytes: extraBytes.Bytes(),
					},
				},
			},
		}, nil
	}

	headerLen := uint64(headerSize)
	if rest.Size() < headerLen {
		return Resource{}, scope.NewInvalidDataError(2, fmt.Errorf("patch file too short for its %d-byte header", headerLen))
	}
	headerBlock := rest.Sub(0, headerLen)
	header, err := headerBlock.OpenMem()
	if err != nil {
		return Resource{}, scope.NewInvalidDataError(2, err)
	}
	data := rest.SubFrom(headerLen)

	simple := header.Bytes()
	if simple == nil {
		simple = []byte{}
	}

	return Resource{
		ID: id,
		Contents: ResourceContents{
			Provenance: FromPatch,
			Source:     data.ToLazy(),
			Extra:      &ExtraData{Simple: simple},
		},
	}, nil
}
