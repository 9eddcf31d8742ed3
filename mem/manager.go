package mem

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/dacapoday/flat"
)

// Manager multiplexes up to 255 virtual memories onto one physical
// memory. Pages are handed out in fixed buckets so every virtual
// memory stays growable without relocating data, at the cost of
// bucket-granular growth.
//
// The first physical page holds the manager's own header: magic code,
// version, bucket size, the size of every virtual memory and the owner
// of every bucket. Buckets are allocated monotonically and never
// freed, which keeps the owner table enough to rebuild the bucket
// order of each virtual memory after a restart. Id 255 is reserved:
// its byte value marks a free bucket in the owner table.
type Manager struct {
	rw    sync.RWMutex
	inner flat.Memory

	bucketPages int64
	next        int64        // first never-allocated bucket
	sizes       [256]int64   // pages per virtual memory
	buckets     [256][]int64 // bucket ids per virtual memory, in order
}

const (
	managerVersion = 1

	bucketPagesDefault = 128

	managerSizesOff  = 16
	managerTableOff  = managerSizesOff + 256*8
	managerMaxBucket = 32768
	managerHeadSize  = managerTableOff + managerMaxBucket

	bucketFree = 0xFF
)

var managerMagic = [4]byte{'F', 'M', 'G', 'R'}

// NewManager initializes or loads a manager on inner.
// A fresh or all-zero region is initialized in place; a region carrying
// the manager magic is loaded; anything else fails with
// flat.ErrUnknownMagicCode.
func NewManager(inner flat.Memory) (*Manager, error) {
	m := &Manager{inner: inner, bucketPages: bucketPagesDefault}

	if inner.Size() == 0 {
		if _, ok := inner.Grow(1); !ok {
			return nil, fmt.Errorf("mem.NewManager: %w", flat.ErrNoSpace)
		}
		return m, m.init()
	}

	var magic [4]byte
	inner.Read(0, magic[:])
	if magic == [4]byte{} {
		return m, m.init()
	}
	if magic != managerMagic {
		return nil, fmt.Errorf("mem.NewManager: %w %v", flat.ErrUnknownMagicCode, magic)
	}
	return m, m.load()
}

func (m *Manager) init() error {
	head := make([]byte, managerHeadSize)
	copy(head, managerMagic[:])
	head[4] = managerVersion
	binary.LittleEndian.PutUint64(head[8:], uint64(m.bucketPages))
	for i := managerTableOff; i < managerHeadSize; i++ {
		head[i] = bucketFree
	}
	m.inner.Write(0, head)
	return nil
}

func (m *Manager) load() error {
	head := make([]byte, managerHeadSize)
	m.inner.Read(0, head)

	if head[4] != managerVersion {
		return fmt.Errorf("mem.NewManager: version %d: %w", head[4], flat.ErrUnsupported)
	}
	bucketPages := int64(binary.LittleEndian.Uint64(head[8:]))
	if bucketPages <= 0 {
		return fmt.Errorf("mem.NewManager: bucket size %d: %w", bucketPages, flat.ErrUnsupported)
	}
	m.bucketPages = bucketPages

	for id := range 256 {
		m.sizes[id] = int64(binary.LittleEndian.Uint64(head[managerSizesOff+id*8:]))
	}
	for b := range int64(managerMaxBucket) {
		id := head[managerTableOff+b]
		if id == bucketFree {
			continue
		}
		m.buckets[id] = append(m.buckets[id], b)
		if b >= m.next {
			m.next = b + 1
		}
	}
	return nil
}

// Get returns the virtual memory with the given id, 0 through 254.
// Ids are stable across restarts; an id that was never grown reads as
// an empty memory. Get panics with flat.ErrOutOfRange for id 255,
// which is reserved as the free marker in the bucket owner table.
func (m *Manager) Get(id uint8) *Virtual {
	if id == bucketFree {
		panic(flat.ErrOutOfRange)
	}
	return &Virtual{mgr: m, id: id}
}

// BucketPages returns the growth granularity in pages.
func (m *Manager) BucketPages() int64 {
	return m.bucketPages
}

func (m *Manager) grow(id uint8, delta int64) (int64, bool) {
	m.rw.Lock()
	defer m.rw.Unlock()

	prev := m.sizes[id]
	if delta < 0 {
		return prev, false
	}

	need := (prev+delta+m.bucketPages-1)/m.bucketPages - int64(len(m.buckets[id]))
	if m.next+need > managerMaxBucket {
		return prev, false
	}
	if need > 0 {
		// one physical grow covers every bucket taken by this call
		required := 1 + (m.next+need)*m.bucketPages
		if short := required - m.inner.Size(); short > 0 {
			if _, ok := m.inner.Grow(short); !ok {
				return prev, false
			}
		}
		for range need {
			b := m.next
			m.next++
			m.buckets[id] = append(m.buckets[id], b)
			m.inner.Write(managerTableOff+b, []byte{id})
		}
	}

	m.sizes[id] = prev + delta
	var size [8]byte
	binary.LittleEndian.PutUint64(size[:], uint64(prev+delta))
	m.inner.Write(managerSizesOff+int64(id)*8, size[:])
	return prev, true
}

func (m *Manager) access(id uint8, off int64, buf []byte, write bool) {
	if len(buf) == 0 {
		return
	}
	m.rw.RLock()
	defer m.rw.RUnlock()

	if off < 0 || off+int64(len(buf)) > m.sizes[id]<<pageShift {
		panic(flat.ErrOutOfRange)
	}

	bucketBytes := m.bucketPages << pageShift
	for len(buf) > 0 {
		within := off % bucketBytes
		b := m.buckets[id][off/bucketBytes]
		phys := flat.PageSize + b*bucketBytes + within
		n := min(int64(len(buf)), bucketBytes-within)
		if write {
			m.inner.Write(phys, buf[:n])
		} else {
			m.inner.Read(phys, buf[:n])
		}
		buf = buf[n:]
		off += n
	}
}

// Virtual is one of a Manager's memories. It implements flat.Memory.
type Virtual struct {
	mgr *Manager
	id  uint8
}

var _ flat.Memory = new(Virtual)

// Size returns the current size of the memory in pages.
func (v *Virtual) Size() int64 {
	v.mgr.rw.RLock()
	defer v.mgr.rw.RUnlock()
	return v.mgr.sizes[v.id]
}

// Grow extends the memory by delta pages filled with zero bytes,
// taking buckets from the physical memory as needed. It returns the
// size in pages before the call, or false if the bucket table or the
// physical memory is exhausted.
func (v *Virtual) Grow(delta int64) (int64, bool) {
	return v.mgr.grow(v.id, delta)
}

// Read copies len(dst) bytes starting at byte offset off into dst.
func (v *Virtual) Read(off int64, dst []byte) {
	v.mgr.access(v.id, off, dst, false)
}

// Write copies src into the memory starting at byte offset off.
func (v *Virtual) Write(off int64, src []byte) {
	v.mgr.access(v.id, off, src, true)
}
