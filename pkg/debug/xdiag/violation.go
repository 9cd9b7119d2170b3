package xdiag

import (
	"fmt"

	"github.com/opencpi/xkit/pkg/os/xerrno"
)

// Violation 表示一次契约违规（编程缺陷）。
// 检查开启时作为 panic 值抛出，关闭时作为错误返回。
type Violation struct {
	// Err 违规描述，通常是调用方的哨兵错误。
	Err error
	// Site 调用点指纹。
	Site uint64
	// Count 同一调用点累计违规次数。
	Count int
}

// Error 实现 error 接口。
func (v *Violation) Error() string {
	return "xdiag: contract violation: " + v.Err.Error()
}

// Unwrap 返回违规描述，支持 errors.Is 判断哨兵。
func (v *Violation) Unwrap() error {
	return v.Err
}

// ChecksEnabled 报告契约检查是否开启（未使用 -tags xsync_release 构建）。
func ChecksEnabled() bool {
	return checksEnabled
}

// Violate 报告一次契约违规。
//
// 总是以 LevelBad 记录，阈值达到 LevelDebug 时记录附带堆栈；
// 同一调用点首次出现时额外向转储描述符直写堆栈。
// 检查开启时 panic(*Violation)；否则返回 *Violation，调用方应将其作为错误返回。
func Violate(err error) error {
	site := fingerprint(1)
	v := &Violation{Err: err, Site: site, Count: depot.record(site)}

	if ShouldLog(LevelDebug) {
		logStack(LevelBad, v.Error(), Stack(false))
	} else {
		LogPrint(LevelBad, "%s", v.Error())
	}
	if v.Count == 1 {
		if fd := int(dumpFD.Load()); fd >= 0 {
			xerrno.WriteDirect(fd, v.Error()+"\n")
			DumpStack(fd, false)
		}
	}
	if checksEnabled {
		panic(v)
	}
	return v
}

// Assert 在 cond 为 false 时以格式化消息调用 Violate，cond 为 true 时返回 nil。
func Assert(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return Violate(fmt.Errorf(format, args...))
}
