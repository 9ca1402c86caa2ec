package scriptloader

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/opensierra/scicore/internal/resourcestore"
	"github.com/opensierra/scicore/internal/restype"
)

// ScriptLoader holds the selector table and every script loaded from a
// ResourceSet.
type ScriptLoader struct {
	Selectors *SelectorTable

	scriptIDs     []uint16
	loadedScripts map[uint16]*LoadedScript
}

// ScriptIDs returns the resource number of every Script/Heap pair that
// was loaded, in ascending order.
func (l *ScriptLoader) ScriptIDs() []uint16 { return l.scriptIDs }

// LoadedScript returns the decoded script for the given script number.
func (l *ScriptLoader) LoadedScript(scriptID uint16) (*LoadedScript, bool) {
	s, ok := l.loadedScripts[scriptID]
	return s, ok
}

// LoadFrom loads the selector table and every (Script, Heap) resource
// pair found in rs, applying relocation and heap decoding concurrently:
// every script's load is independent CPU-only work, so errgroup fans it
// out.
func LoadFrom(ctx context.Context, rs *resourcestore.ResourceSet) (*ScriptLoader, error) {
	vocabRes, ok := rs.Get(restype.New(restype.Vocab, 997))
	if !ok {
		return nil, fmt.Errorf("resource set has no Vocab:997 selector table")
	}
	vocabData, err := vocabRes.Data()
	if err != nil {
		return nil, fmt.Errorf("reading Vocab:997: %w", err)
	}
	selectors, err := LoadSelectorTable(vocabData)
	if err != nil {
		return nil, fmt.Errorf("loading selector table: %w", err)
	}

	scripts := rs.ResourcesOfType(restype.Script)

	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	loaded := make(map[uint16]*LoadedScript, len(scripts))
	var scriptIDs []uint16

	for _, scriptRes := range scripts {
		scriptRes := scriptRes
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}

			num := scriptRes.ID.Num
			heapRes, ok := rs.Get(restype.New(restype.Heap, num))
			if !ok {
				return fmt.Errorf("script %d has no matching heap resource", num)
			}
			scriptData, err := scriptRes.Data()
			if err != nil {
				return fmt.Errorf("reading script %d: %w", num, err)
			}
			heapData, err := heapRes.Data()
			if err != nil {
				return fmt.Errorf("reading heap %d: %w", num, err)
			}
			ls, err := LoadScript(selectors, scriptData, heapData)
			if err != nil {
				return fmt.Errorf("loading script %d: %w", num, err)
			}

			mu.Lock()
			loaded[num] = ls
			scriptIDs = append(scriptIDs, num)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ScriptLoader{
		Selectors:     selectors,
		scriptIDs:     sortedUint16(scriptIDs),
		loadedScripts: loaded,
	}, nil
}

// NewClassDeclSet aggregates every class-declaring object across l's
// loaded scripts into a topologically ordered ClassDeclSet.
func (l *ScriptLoader) NewClassDeclSet() *ClassDeclSet {
	byScript := make(map[uint16][]*Object, len(l.loadedScripts))
	for scriptID, ls := range l.loadedScripts {
		byScript[scriptID] = ls.Objects()
	}
	return newClassDeclSet(byScript)
}

func sortedUint16(vs []uint16) []uint16 {
	out := make([]uint16, len(vs))
	copy(out, vs)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
