// Package overlay reinterprets byte ranges as fixed-layout records.
//
// It is the only place in the module that casts between []byte and typed
// pointers. Every constructor checks the range length first and, for the
// borrowed forms, the start address alignment, before any reinterpretation
// happens. Records are read in host byte order, so callers describe
// little-endian wire layouts and run on little-endian hosts.
//
// The constructor matrix:
//
//	            single     array
//	owned       Copy       CopySlice
//	borrowed    View       ViewSlice
//	mutable     Mut        MutSlice
//
// After construction the record's Validate method runs on every element
// and its error is returned unchanged.
package overlay

import (
	"iter"
	"math"
	"unsafe"

	"github.com/psp-tools/psp-packer/pkg/packerr"
)

// Record is a fixed-layout type with its own acceptance predicate.
// Implementations must be plain structs of fixed-width integers and arrays
// with no pointers and no implicit padding.
type Record interface {
	Validate() error
}

// SizeOf returns the encoded size of T.
func SizeOf[T any]() int {
	var v T
	return int(unsafe.Sizeof(v))
}

// AlignOf returns the alignment borrowed views of T require.
func AlignOf[T any]() int {
	var v T
	return int(unsafe.Alignof(v))
}

func expectedLen[T any](b []byte, count int) (int, error) {
	size := SizeOf[T]()
	if count < 0 || (size > 0 && count > math.MaxInt/size) {
		return 0, &packerr.SizeError{InputLen: len(b), ExpectedLen: math.MaxInt}
	}
	want := size * count
	if len(b) < want {
		return 0, &packerr.SizeError{InputLen: len(b), ExpectedLen: want}
	}
	return want, nil
}

func checkAlign[T any](b []byte) error {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	align := AlignOf[T]()
	if addr%uintptr(align) != 0 {
		return &packerr.AlignmentError{Align: align, Addr: addr}
	}
	return nil
}

// Copy decodes one T from the start of b into a new value. It never fails
// on alignment.
func Copy[T Record](b []byte) (T, error) {
	var v T
	n, err := expectedLen[T](b, 1)
	if err != nil {
		return v, err
	}
	copy(Bytes(&v), b[:n])
	if err := v.Validate(); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// CopySlice decodes count consecutive T values from the start of b.
func CopySlice[T Record](b []byte, count int) ([]T, error) {
	n, err := expectedLen[T](b, count)
	if err != nil {
		return nil, err
	}
	out := make([]T, count)
	if count == 0 {
		return out, nil
	}
	copy(SliceBytes(out), b[:n])
	for i := range out {
		if err := out[i].Validate(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Ref is a read-only window onto a record that lives in a borrowed buffer.
// The buffer must outlive the Ref.
type Ref[T any] struct {
	p *T
}

// Get returns a copy of the record.
func (r Ref[T]) Get() T { return *r.p }

// Refs is a read-only window onto consecutive records in a borrowed buffer.
type Refs[T any] struct {
	s []T
}

func (r Refs[T]) Len() int { return len(r.s) }

// At returns a copy of record i.
func (r Refs[T]) At(i int) T { return r.s[i] }

// All yields copies of every record in order.
func (r Refs[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i, v := range r.s {
			if !yield(i, v) {
				return
			}
		}
	}
}

// View borrows the start of b as a read-only T.
func View[T Record](b []byte) (Ref[T], error) {
	p, err := cast[T](b)
	if err != nil {
		return Ref[T]{}, err
	}
	return Ref[T]{p: p}, nil
}

// ViewSlice borrows the start of b as count read-only T values.
func ViewSlice[T Record](b []byte, count int) (Refs[T], error) {
	s, err := castSlice[T](b, count)
	if err != nil {
		return Refs[T]{}, err
	}
	return Refs[T]{s: s}, nil
}

// Mut borrows the start of b as a writable T. Writes through the returned
// pointer land in b.
func Mut[T Record](b []byte) (*T, error) {
	return cast[T](b)
}

// MutSlice borrows the start of b as count writable T values.
func MutSlice[T Record](b []byte, count int) ([]T, error) {
	return castSlice[T](b, count)
}

func cast[T Record](b []byte) (*T, error) {
	if _, err := expectedLen[T](b, 1); err != nil {
		return nil, err
	}
	if err := checkAlign[T](b); err != nil {
		return nil, err
	}
	// Length and alignment were checked above.
	p := (*T)(unsafe.Pointer(unsafe.SliceData(b)))
	if err := (*p).Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func castSlice[T Record](b []byte, count int) ([]T, error) {
	if _, err := expectedLen[T](b, count); err != nil {
		return nil, err
	}
	if count == 0 {
		return []T{}, nil
	}
	if err := checkAlign[T](b); err != nil {
		return nil, err
	}
	s := unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(b))), count)
	for i := range s {
		if err := s[i].Validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Bytes returns the raw representation of *p. The slice aliases *p, so
// writes to it modify the record.
func Bytes[T any](p *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(p)), unsafe.Sizeof(*p))
}

// SliceBytes returns the raw representation of s, aliasing its storage.
func SliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(s))), uintptr(len(s))*unsafe.Sizeof(s[0]))
}

// Encode returns a fresh copy of v's raw representation.
func Encode[T any](v T) []byte {
	out := make([]byte, unsafe.Sizeof(v))
	copy(out, Bytes(&v))
	return out
}
