package bind_group_provider

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyWrite is returned for a write with no provider or no data.
	ErrEmptyWrite = errors.New("empty buffer write")

	// ErrUnalignedWrite is returned when a write's offset or size is not a multiple of WriteAlignment.
	ErrUnalignedWrite = errors.New("unaligned buffer write")
)

// WriteAlignment is the byte alignment WebGPU requires of queue buffer writes.
const WriteAlignment = 4

// BufferWrite is one queued write into the buffer at Binding of Provider. The animator stages
// one per playback update and the skinning view one per camera change.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// End returns the byte offset just past the written range.
//
// Returns:
//   - uint64: Offset + len(Data)
func (w BufferWrite) End() uint64 {
	return w.Offset + uint64(len(w.Data))
}

// Validate checks the write can be submitted to a queue.
//
// Returns:
//   - error: ErrEmptyWrite or ErrUnalignedWrite, nil when the write is valid
func (w BufferWrite) Validate() error {
	if w.Provider == nil || len(w.Data) == 0 {
		return ErrEmptyWrite
	}
	if w.Offset%WriteAlignment != 0 || len(w.Data)%WriteAlignment != 0 {
		return fmt.Errorf("%w: %s binding %d offset %d size %d", ErrUnalignedWrite, w.Provider.Label(), w.Binding, w.Offset, len(w.Data))
	}
	return nil
}
