package arch

import (
	"fmt"
	"unsafe"
)

// MemoryRegionType is the kind of access a region grants, and the kind of
// access a check requests.
type MemoryRegionType uint8

const (
	ReadOnlyData MemoryRegionType = iota
	ReadWriteData
	ReadOnlyExecutable
	ReadWriteExecutable
	Device
)

type accessPerms uint8

const (
	permRead accessPerms = 1 << iota
	permWrite
	permExec
	permDevice
)

func (t MemoryRegionType) perms() accessPerms {
	switch t {
	case ReadOnlyData:
		return permRead
	case ReadWriteData:
		return permRead | permWrite
	case ReadOnlyExecutable:
		return permRead | permExec
	case ReadWriteExecutable:
		return permRead | permWrite | permExec
	case Device:
		return permRead | permWrite | permDevice
	default:
		return 0
	}
}

func (t MemoryRegionType) valid() bool { return t.perms() != 0 }

// HasAccess reports whether a region of type t satisfies a request of type
// requested: the requested permissions must be a subset of t's.
func (t MemoryRegionType) HasAccess(requested MemoryRegionType) bool {
	want := requested.perms()
	return want != 0 && t.perms()&want == want
}

func (t MemoryRegionType) String() string {
	switch t {
	case ReadOnlyData:
		return "ro-data"
	case ReadWriteData:
		return "rw-data"
	case ReadOnlyExecutable:
		return "ro-exec"
	case ReadWriteExecutable:
		return "rw-exec"
	case Device:
		return "device"
	default:
		return "invalid"
	}
}

// MemoryRegion is the half-open address range [Start, End).
type MemoryRegion struct {
	Type  MemoryRegionType
	Start uintptr
	End   uintptr
}

// MemoryConfig describes the ranges one execution domain may access.
// It is immutable once built.
type MemoryConfig struct {
	name    string
	trusted bool
	n       int
	regions [MaxMemoryRegions]MemoryRegion
}

// KernelThreadMemoryConfig is the trusted domain of kernel threads. It grants
// every access.
var KernelThreadMemoryConfig = &MemoryConfig{name: "kernel", trusted: true}

// NewMemoryConfig builds an untrusted domain from regions. Regions may
// overlap; access is the union of what they grant.
func NewMemoryConfig(name string, regions ...MemoryRegion) (*MemoryConfig, error) {
	if len(regions) > MaxMemoryRegions {
		return nil, fmt.Errorf("%w: %d regions exceeds %d", ErrInvalidArgument, len(regions), MaxMemoryRegions)
	}
	c := &MemoryConfig{name: name}
	for i, r := range regions {
		if !r.Type.valid() {
			return nil, fmt.Errorf("%w: region %d: unknown type %d", ErrInvalidArgument, i, r.Type)
		}
		if r.Start >= r.End {
			return nil, fmt.Errorf("%w: region %d: empty range %#x-%#x", ErrInvalidArgument, i, r.Start, r.End)
		}
		if r.Start%memoryRegionAlign != 0 || r.End%memoryRegionAlign != 0 {
			return nil, fmt.Errorf("%w: region %d: %#x-%#x not %d-byte aligned", ErrInvalidArgument, i, r.Start, r.End, memoryRegionAlign)
		}
		c.regions[i] = r
	}
	c.n = len(regions)
	return c, nil
}

func (c *MemoryConfig) Name() string { return c.name }

// Trusted reports whether c is the kernel's own domain.
func (c *MemoryConfig) Trusted() bool { return c.trusted }

// Len returns the number of regions.
func (c *MemoryConfig) Len() int { return c.n }

// Region returns region i.
func (c *MemoryConfig) Region(i int) MemoryRegion { return c.regions[i] }

// RangeHasAccess reports whether every byte of [start, end) is accessible
// for access type t. It is pure and does not allocate, so fault handlers may
// call it. An empty range is accessible; an inverted one is not.
func (c *MemoryConfig) RangeHasAccess(t MemoryRegionType, start, end uintptr) bool {
	if c == nil || start > end {
		return false
	}
	if start == end || c.trusted {
		return true
	}

	cur := start
	for cur < end {
		next := cur
		for i := 0; i < c.n; i++ {
			r := &c.regions[i]
			if r.Start <= cur && cur < r.End && r.End > next && r.Type.HasAccess(t) {
				next = r.End
			}
		}
		if next == cur {
			return false
		}
		cur = next
	}
	return true
}

// StackAlign is the alignment of both ends of a Stack.
const StackAlign = 8

// Stack describes memory usable as a call stack. It is owned by the kernel
// allocator; a ThreadState only records it.
type Stack struct {
	Start uintptr
	End   uintptr
}

// StackFromBytes describes b as a stack, trimmed to StackAlign. The caller
// keeps b alive for as long as the stack is in use.
func StackFromBytes(b []byte) Stack {
	if len(b) == 0 {
		return Stack{}
	}
	base := uintptr(unsafe.Pointer(&b[0]))
	start := (base + StackAlign - 1) &^ (StackAlign - 1)
	end := (base + uintptr(len(b))) &^ (StackAlign - 1)
	if end <= start {
		return Stack{}
	}
	return Stack{Start: start, End: end}
}

func (s Stack) Size() uintptr {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

func (s Stack) Contains(addr uintptr) bool {
	return s.Start <= addr && addr < s.End
}

func (s Stack) validate() error {
	switch {
	case s.Start == 0 || s.End <= s.Start:
		return fmt.Errorf("%w: empty stack %#x-%#x", ErrInvalidArgument, s.Start, s.End)
	case s.Start%StackAlign != 0 || s.End%StackAlign != 0:
		return fmt.Errorf("%w: stack %#x-%#x not %d-byte aligned", ErrInvalidArgument, s.Start, s.End, StackAlign)
	case s.Size() < MinStackSize:
		return fmt.Errorf("%w: stack of %d bytes below minimum %d", ErrInvalidArgument, s.Size(), MinStackSize)
	}
	return nil
}
