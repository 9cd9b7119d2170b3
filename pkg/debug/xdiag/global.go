package xdiag

import (
	"os"
	"sync"
	"sync/atomic"

	"github.com/opencpi/xkit/pkg/os/xerrno"
)

// EnvLogLevel 是初始化日志阈值的环境变量名。
const EnvLogLevel = "OCPI_LOG_LEVEL"

// =============================================================================
// 进程级阈值
//
// 读路径只做一次 atomic.Load；初始化路径由 initMu + initOnce 串行化。
// initMu 仅用于诊断设施自身，不与任何同步原语共享。
// =============================================================================

var (
	threshold   atomic.Int32
	initialized atomic.Bool

	initMu   sync.Mutex
	initOnce sync.Once

	// lookupEnv 支持测试替换。
	lookupEnv = os.LookupEnv
)

// ensureInit 惰性地从环境变量初始化阈值，只执行一次。
//
// 设计决策: 在持 initMu 的情况下执行 once.Do，确保 ResetForTest（重置 initOnce）
// 与 once.Do 之间不会并发。初始化后 Level() 走 atomic 快速路径，不进入此函数。
func ensureInit() {
	if initialized.Load() {
		return
	}
	initMu.Lock()
	defer initMu.Unlock()

	initOnce.Do(func() {
		level := DefaultLevel
		if v, ok := lookupEnv(EnvLogLevel); ok && v != "" {
			parsed, err := ParseLevel(v)
			if err != nil {
				// 此时 logger 可能尚未就绪，直接写 stderr
				xerrno.WriteDirect(xerrno.Stderr, "xdiag: ignoring invalid "+EnvLogLevel+"="+v+"\n")
			} else {
				level = parsed
			}
		}
		threshold.Store(int32(level))
		initialized.Store(true)
	})
}

// GetLevel 返回当前的日志阈值，首次调用时从环境变量初始化。
func GetLevel() Level {
	ensureInit()
	return Level(threshold.Load())
}

// SetLevel 设置日志阈值，超出 [LevelNone, MaxLevel] 的值会被截断。
// 显式设置后不再从环境变量初始化。
func SetLevel(l Level) {
	l = min(max(l, LevelNone), MaxLevel)
	initMu.Lock()
	defer initMu.Unlock()
	initOnce.Do(func() {})
	threshold.Store(int32(l))
	initialized.Store(true)
}

// ShouldLog 报告 level 级别的消息是否会被输出。
func ShouldLog(level Level) bool {
	return level > LevelNone && level <= GetLevel()
}

// ResetForTest 将诊断设施重置为未初始化状态（仅用于测试）。
// 下次使用时重新读取环境变量，日志输出恢复为默认 stderr，关闭状态被清除。
func ResetForTest() {
	initMu.Lock()
	initialized.Store(false)
	threshold.Store(0)
	initOnce = sync.Once{}
	initMu.Unlock()

	resetLogger()
	shuttingDown.Store(false)
}
