package xdiag

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// depotFrames 计算调用点指纹时采集的栈帧数。
	depotFrames = 16

	// depotSize 去重表容量，超出时淘汰最久未出现的调用点。
	depotSize = 1024
)

// stackDepot 按调用栈指纹统计契约违规次数，用于只在首次出现时转储完整堆栈。
// 指纹是程序计数器数组的 xxhash。
type stackDepot struct {
	mu    sync.Mutex
	sites *lru.Cache[uint64, int]
}

func newStackDepot(size int) *stackDepot {
	// size > 0 时 lru.New 不会失败
	c, err := lru.New[uint64, int](size)
	if err != nil {
		panic("xdiag: invalid depot size")
	}
	return &stackDepot{sites: c}
}

var depot = newStackDepot(depotSize)

// fingerprint 计算调用栈指纹。skip 为相对调用方额外跳过的帧数。
func fingerprint(skip int) uint64 {
	var pcs [depotFrames]uintptr
	// +2: runtime.Callers 与 fingerprint 自身
	n := runtime.Callers(skip+2, pcs[:])
	b := unsafe.Slice((*byte)(unsafe.Pointer(&pcs[0])), n*int(unsafe.Sizeof(pcs[0])))
	return xxhash.Sum64(b)
}

// record 记录一次调用点出现，返回该调用点的累计次数。
func (d *stackDepot) record(site uint64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	count, _ := d.sites.Get(site)
	count++
	d.sites.Add(site, count)
	return count
}

// count 返回调用点的累计次数，不更新 LRU 顺序。
func (d *stackDepot) count(site uint64) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, _ := d.sites.Peek(site)
	return c
}

func (d *stackDepot) reset() {
	d.mu.Lock()
	d.sites.Purge()
	d.mu.Unlock()
}
