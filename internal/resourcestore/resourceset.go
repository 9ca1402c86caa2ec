package resourcestore

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/opensierra/scicore/internal/block"
	"github.com/opensierra/scicore/internal/restype"
	"github.com/opensierra/scicore/internal/scierr"
)

// resourceEntry tracks the up-to-two sources a ResourceId can have: a
// volume-sourced reading and a patch-file override. The patch always
// wins for default access but the archive source is retained so
// callers can reach either.
type resourceEntry struct {
	data  *ResourceContents
	patch *ResourceContents
}

func (e *resourceEntry) defaultContents() ResourceContents {
	if e.patch != nil {
		return *e.patch
	}
	return *e.data
}

func (e *resourceEntry) addPatch(c ResourceContents) error {
	if e.patch != nil {
		return scierr.NewConflictError("duplicate patch file for the same resource id")
	}
	e.patch = &c
	return nil
}

// ResourceSet is a keyed collection of resources merged from a main
// archive, a secondary message archive, and loose patch files.
type ResourceSet struct {
	entries map[restype.Id]*resourceEntry
}

func newResourceSet() *ResourceSet {
	return &ResourceSet{entries: make(map[restype.Id]*resourceEntry)}
}

// OpenGameResources reads a game root directory into a ResourceSet,
// reading the main map+volume (with patch overlay) and merging in the
// message map+volume (hard error on overlap).
func OpenGameResources(root string) (*ResourceSet, error) {
	patches, err := scanPatchFiles(root)
	if err != nil {
		return nil, err
	}

	mainSet, err := readArchive(
		filepath.Join(root, "RESOURCE.MAP"),
		filepath.Join(root, "RESOURCE.000"),
		patches,
	)
	if err != nil {
		return nil, err
	}

	messageSet, err := readArchive(
		filepath.Join(root, "MESSAGE.MAP"),
		filepath.Join(root, "RESOURCE.MSG"),
		nil,
	)
	if err != nil {
		return nil, err
	}

	return mainSet.merge(messageSet)
}

// scanPatchFiles walks root (non-recursively) for patch-named files
// and parses each.
func scanPatchFiles(root string) ([]Resource, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}

	var patches []Resource
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		id, ok := patchCandidate(de.Name())
		if !ok {
			continue
		}
		path := filepath.Join(root, de.Name())
		// Left open: the parsed resource's payload is read from b lazily.
		b, _, err := block.OpenFile(path)
		if err != nil {
			return nil, err
		}
		res, err := parsePatchFile(id, b)
		if err != nil {
			return nil, err
		}
		patches = append(patches, res)
	}
	return patches, nil
}

// readArchive parses one map+volume pair into a ResourceSet, overlaying
// the given patches onto it (empty/nil patches for the message
// archive, which never takes overlays directly).
func readArchive(mapPath, volPath string, patches []Resource) (*ResourceSet, error) {
	if _, err := os.Stat(mapPath); os.IsNotExist(err) {
		return newResourceSet(), nil
	}

	mapBlock, mapCloser, err := block.OpenFile(mapPath)
	if err != nil {
		return nil, err
	}
	defer mapCloser.Close()
	mapMem, err := mapBlock.OpenMem()
	if err != nil {
		return nil, err
	}
	locations, err := parseMapFile(mapMem)
	if err != nil {
		return nil, err
	}

	// Left open: every resource's payload is read from volBlock lazily.
	volBlock, _, err := block.OpenFile(volPath)
	if err != nil {
		return nil, err
	}

	set := newResourceSet()
	for _, loc := range locations {
		contents, err := readVolumeResource(volBlock, loc)
		if err != nil {
			return nil, err
		}
		c := contents
		set.entries[loc.ID] = &resourceEntry{data: &c}
	}

	for _, patch := range patches {
		entry, ok := set.entries[patch.ID]
		if !ok {
			entry = &resourceEntry{}
			set.entries[patch.ID] = entry
		}
		c := patch.Contents
		if err := entry.addPatch(c); err != nil {
			return nil, err
		}
	}

	return set, nil
}

// Get returns the resource for id, if present, with patch overlay
// already resolved.
func (s *ResourceSet) Get(id restype.Id) (Resource, bool) {
	e, ok := s.entries[id]
	if !ok {
		return Resource{}, false
	}
	return Resource{ID: id, Contents: e.defaultContents()}, true
}

// ResourceIDs returns every id in the set, sorted by (Type, Num).
func (s *ResourceSet) ResourceIDs() []restype.Id {
	ids := make([]restype.Id, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return ids
}

// ResourcesOfType returns every resource of the given type, sorted by
// Num.
func (s *ResourceSet) ResourcesOfType(t restype.Type) []Resource {
	var out []Resource
	for _, id := range s.ResourceIDs() {
		if id.Type != t {
			continue
		}
		res, _ := s.Get(id)
		out = append(out, res)
	}
	return out
}

// WithOverlay returns a new ResourceSet where every id present in
// overlay takes precedence over s's own entry, and ids unique to
// either side are kept.
func (s *ResourceSet) WithOverlay(overlay *ResourceSet) *ResourceSet {
	out := newResourceSet()
	for id, e := range s.entries {
		copy := *e
		out.entries[id] = &copy
	}
	for id, e := range overlay.entries {
		copy := *e
		out.entries[id] = &copy
	}
	return out
}

// merge combines s with other, failing if any id appears in both.
func (s *ResourceSet) merge(other *ResourceSet) (*ResourceSet, error) {
	out := newResourceSet()
	for id, e := range s.entries {
		copy := *e
		out.entries[id] = &copy
	}
	for id, e := range other.entries {
		if _, exists := out.entries[id]; exists {
			return nil, scierr.NewConflictError("resource id %v present in both archives being merged", id)
		}
		copy := *e
		out.entries[id] = &copy
	}
	return out, nil
}

// Merge is the exported form of merge, for combining two independently
// built ResourceSets (e.g. across mods) under the same hard-error-on-
// overlap rule.
func (s *ResourceSet) Merge(other *ResourceSet) (*ResourceSet, error) {
	return s.merge(other)
}
