package image

import (
	"github.com/wippyai/vmi-runtime/errors"
)

// Well-known section names in a guest binary.
const (
	SectionExports = ".vmi_exports"
	SectionImports = ".vmi_imports"
)

// Options configure image parsing.
type Options struct {
	// Debug expects metadata records to carry parameter and return type
	// names. Must match the guest build.
	Debug bool
}

// DefaultOptions returns the parsing defaults: debug metadata on.
func DefaultOptions() Options {
	return Options{Debug: true}
}

// Image is the host's view of a loaded guest binary: where its segments
// live and which functions it exports and imports.
type Image struct {
	LoadBase uint64
	Segments *SegmentTable
	Exports  []ExportEntry
	Imports  []FnMeta
}

// Parse builds an Image from the raw metadata sections of a guest binary.
// sections maps section names to their contents; the export and import
// sections may be absent for a guest with no boundary functions on that
// side.
func Parse(sections map[string][]byte, loadBase uint64, opts Options) (*Image, error) {
	img := &Image{LoadBase: loadBase}

	if raw, ok := sections[SectionExports]; ok {
		exports, err := ParseExportRegion(raw, opts.Debug)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidMeta, err, "export region")
		}
		img.Exports = exports
	}

	if raw, ok := sections[SectionImports]; ok {
		imports, err := ParseFnMetaRegion(raw, opts.Debug)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseLoad, errors.KindInvalidMeta, err, "import region")
		}
		img.Imports = imports
	}

	return img, nil
}

// ExportBySig returns the export entry with the given identity.
func (img *Image) ExportBySig(sig uint64) (ExportEntry, bool) {
	for _, e := range img.Exports {
		if uint64(e.Meta.Sig) == sig {
			return e, true
		}
	}
	return ExportEntry{}, false
}
