// Package sharedbuf implements a reference-counted byte buffer.
//
// A MediaPacket's payload is immutable once wrapped and is shared across
// readers; it is released only once the last reader drops it. Any
// component that wants to retain bytes past the current call must clone
// the handle with Retain rather than holding the raw slice.
package sharedbuf

import "sync/atomic"

// Buffer is a reference-counted, immutable byte buffer.
type Buffer struct {
	data    []byte
	count   *int32
	onEmpty func()
}

// New wraps data in a Buffer with an initial reference count of one.
func New(data []byte) *Buffer {
	count := int32(1)
	return &Buffer{data: data, count: &count}
}

// NewWithRelease wraps data in a Buffer that invokes onEmpty once the last
// reference is released (used to return pooled memory upstream).
func NewWithRelease(data []byte, onEmpty func()) *Buffer {
	count := int32(1)
	return &Buffer{data: data, count: &count, onEmpty: onEmpty}
}

// Bytes returns the underlying bytes. The caller must not mutate them and
// must not retain the slice past Release.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Len returns the length of the underlying bytes.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Retain increments the reference count and returns a handle sharing the
// same underlying bytes. Call Release on the returned handle independently.
func (b *Buffer) Retain() *Buffer {
	atomic.AddInt32(b.count, 1)
	return &Buffer{data: b.data, count: b.count, onEmpty: b.onEmpty}
}

// Release decrements the reference count. When it reaches zero, onEmpty (if
// set) runs exactly once.
func (b *Buffer) Release() {
	if atomic.AddInt32(b.count, -1) == 0 && b.onEmpty != nil {
		b.onEmpty()
	}
}

// RefCount reports the current number of live references. Intended for
// tests and diagnostics only.
func (b *Buffer) RefCount() int32 {
	return atomic.LoadInt32(b.count)
}
