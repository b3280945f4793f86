// Package memmap models the host address space that decoded firmware
// segments are made visible in: named views that alias byte ranges of the
// original dump without copying, plus registered entry points.
package memmap

import (
	"errors"
	"fmt"

	"unesp/internal/flatbin"
)

var (
	ErrViewConflict   = errors.New("memmap: mapped range conflicts with existing view")
	ErrBadSourceRange = errors.New("memmap: view source range outside dump")
	ErrBadHandle      = errors.New("memmap: no such view handle")
)

// ViewHandle identifies a view within its AddressSpace.
type ViewHandle int

// AddressSpace receives decoded segments. The narrow interface keeps the
// loader independent of the host's memory model.
type AddressSpace interface {
	// CreateMappedView makes [sourceOff, sourceOff+size) of the dump visible
	// at mappedAddr. Fails with ErrViewConflict when the mapped range
	// overlaps an existing view, ErrBadSourceRange when the source range
	// does not fit the dump.
	CreateMappedView(name string, mappedAddr uint32, sourceOff uint64, size uint32) (ViewHandle, error)
	SetViewPermissions(h ViewHandle, writable, executable bool) error
	RegisterEntryPoint(addr uint32)
}

// View is one mapped window over the dump.
type View struct {
	Name       string `json:"name"`
	MappedAddr uint32 `json:"mapped_addr"`
	SourceOff  uint64 `json:"source_offset"`
	Size       uint32 `json:"size"`
	Writable   bool   `json:"writable"`
	Executable bool   `json:"executable"`
}

// End returns the first mapped address past the view.
func (v View) End() uint64 { return uint64(v.MappedAddr) + uint64(v.Size) }

func (v View) overlaps(o View) bool {
	return uint64(v.MappedAddr) < o.End() && uint64(o.MappedAddr) < v.End()
}

// Space is an in-memory AddressSpace over a single dump. Views are kept in
// creation order; entry points in registration order. Not safe for
// concurrent writers, matching the single-actor load model.
type Space struct {
	src     flatbin.Source
	views   []View
	entries []uint32
}

// NewSpace creates an empty address space whose views alias src.
func NewSpace(src flatbin.Source) *Space {
	return &Space{src: src}
}

// CreateMappedView registers a view over the dump.
func (s *Space) CreateMappedView(name string, mappedAddr uint32, sourceOff uint64, size uint32) (ViewHandle, error) {
	end := sourceOff + uint64(size)
	if end < sourceOff || end > s.src.Size() {
		return -1, fmt.Errorf("%w: %s source [0x%x, 0x%x) in 0x%x-byte dump",
			ErrBadSourceRange, name, sourceOff, end, s.src.Size())
	}

	v := View{Name: name, MappedAddr: mappedAddr, SourceOff: sourceOff, Size: size}
	if size > 0 {
		for _, ex := range s.views {
			if ex.Size > 0 && v.overlaps(ex) {
				return -1, fmt.Errorf("%w: %s [0x%x, 0x%x) vs %s [0x%x, 0x%x)",
					ErrViewConflict, name, v.MappedAddr, v.End(), ex.Name, ex.MappedAddr, ex.End())
			}
		}
	}

	s.views = append(s.views, v)
	return ViewHandle(len(s.views) - 1), nil
}

// SetViewPermissions updates a view's access permissions.
func (s *Space) SetViewPermissions(h ViewHandle, writable, executable bool) error {
	if int(h) < 0 || int(h) >= len(s.views) {
		return fmt.Errorf("%w: %d", ErrBadHandle, h)
	}
	s.views[h].Writable = writable
	s.views[h].Executable = executable
	return nil
}

// RegisterEntryPoint records an execution start address.
func (s *Space) RegisterEntryPoint(addr uint32) {
	s.entries = append(s.entries, addr)
}

// Views returns all views in creation order.
func (s *Space) Views() []View { return s.views }

// EntryPoints returns registered entry points in registration order.
func (s *Space) EntryPoints() []uint32 { return s.entries }

// ViewData reads the dump bytes a view aliases.
func (s *Space) ViewData(h ViewHandle) ([]byte, error) {
	if int(h) < 0 || int(h) >= len(s.views) {
		return nil, fmt.Errorf("%w: %d", ErrBadHandle, h)
	}
	v := s.views[h]
	return s.src.ReadAt(v.SourceOff, v.Size)
}
