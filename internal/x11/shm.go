package x11

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/xgb/shm"
	"github.com/BurntSushi/xgb/xproto"
	"golang.org/x/sys/unix"
)

// ErrPoolExhausted means every slot of the pool is still owned by the server.
var ErrPoolExhausted = errors.New("shared memory pool exhausted")

// ShmPool is one SysV shared memory segment attached to both this process
// and the X server. Frames are carved out of it as slots; a slot is returned
// once the server acknowledges the PutImage that read it.
type ShmPool struct {
	conn  *Connection
	seg   shm.Seg
	data  []byte
	slots *slotAllocator
}

// NewShmPool creates and attaches a segment of size bytes.
func (c *Connection) NewShmPool(size int) (*ShmPool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid shared memory size %d", size)
	}

	id, err := unix.SysvShmGet(unix.IPC_PRIVATE, size, unix.IPC_CREAT|0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared memory segment: %w", err)
	}
	data, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		unix.SysvShmCtl(id, unix.IPC_RMID, nil)
		return nil, fmt.Errorf("failed to map shared memory segment: %w", err)
	}

	seg, err := shm.NewSegId(c.XUtil.Conn())
	if err != nil {
		unix.SysvShmDetach(data)
		unix.SysvShmCtl(id, unix.IPC_RMID, nil)
		return nil, fmt.Errorf("failed to allocate segment id: %w", err)
	}
	if err := shm.AttachChecked(c.XUtil.Conn(), seg, uint32(id), false).Check(); err != nil {
		unix.SysvShmDetach(data)
		unix.SysvShmCtl(id, unix.IPC_RMID, nil)
		return nil, fmt.Errorf("X server could not attach shared memory: %w", err)
	}

	// Both sides hold a mapping now; the segment disappears with the last one.
	unix.SysvShmCtl(id, unix.IPC_RMID, nil)

	return &ShmPool{
		conn:  c,
		seg:   seg,
		data:  data,
		slots: newSlotAllocator(size),
	}, nil
}

// Size returns the pool capacity in bytes.
func (p *ShmPool) Size() int {
	return len(p.data)
}

// Alloc reserves n bytes and returns their offset and backing slice.
func (p *ShmPool) Alloc(n int) (int, []byte, error) {
	off, ok := p.slots.alloc(n)
	if !ok {
		return 0, nil, fmt.Errorf("%w: %d bytes requested, %d slots busy", ErrPoolExhausted, n, p.slots.busy())
	}
	return off, p.data[off : off+n], nil
}

// Release returns the slot at off to the pool.
func (p *ShmPool) Release(off int) bool {
	return p.slots.release(off)
}

// Seg returns the segment id the server knows the pool by.
func (p *ShmPool) Seg() shm.Seg {
	return p.seg
}

// Owns reports whether a completion event refers to this pool.
func (p *ShmPool) Owns(ev shm.CompletionEvent) bool {
	return ev.Shmseg == p.seg
}

// Put copies a width×height ARGB image at off into win. The server sends a
// shm.CompletionEvent once it no longer reads the slot.
func (p *ShmPool) Put(win xproto.Window, gc xproto.Gcontext, depth byte, width, height, off int) {
	shm.PutImage(
		p.conn.XUtil.Conn(),
		xproto.Drawable(win),
		gc,
		uint16(width), uint16(height), // total
		0, 0, // src x, y
		uint16(width), uint16(height), // src size
		0, 0, // dst x, y
		depth,
		xproto.ImageFormatZPixmap,
		1, // send completion event
		p.seg,
		uint32(off),
	)
}

// Destroy detaches the segment from the server and this process.
func (p *ShmPool) Destroy() {
	shm.Detach(p.conn.XUtil.Conn(), p.seg)
	if p.data != nil {
		unix.SysvShmDetach(p.data)
		p.data = nil
	}
}
