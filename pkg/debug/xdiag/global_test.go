package xdiag

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// setEnv 替换 lookupEnv 并重置全局状态，测试结束后恢复。
func setEnv(t *testing.T, value string, present bool) {
	t.Helper()
	old := lookupEnv
	lookupEnv = func(key string) (string, bool) {
		if key == EnvLogLevel {
			return value, present
		}
		return "", false
	}
	ResetForTest()
	t.Cleanup(func() {
		lookupEnv = old
		ResetForTest()
	})
}

func TestGetLevel_Default(t *testing.T) {
	setEnv(t, "", false)
	assert.Equal(t, DefaultLevel, GetLevel())
}

func TestGetLevel_FromEnv(t *testing.T) {
	setEnv(t, "debug", true)
	assert.Equal(t, LevelDebug, GetLevel())

	setEnv(t, "12", true)
	assert.Equal(t, Level(12), GetLevel())
}

func TestGetLevel_InvalidEnvFallsBack(t *testing.T) {
	setEnv(t, "chatty", true)
	assert.Equal(t, DefaultLevel, GetLevel())
}

func TestGetLevel_EnvReadOnce(t *testing.T) {
	calls := 0
	old := lookupEnv
	lookupEnv = func(string) (string, bool) {
		calls++
		return "info", true
	}
	ResetForTest()
	t.Cleanup(func() {
		lookupEnv = old
		ResetForTest()
	})

	for range 10 {
		assert.Equal(t, LevelInfo, GetLevel())
	}
	assert.Equal(t, 1, calls)
}

func TestGetLevel_ConcurrentInit(t *testing.T) {
	setEnv(t, "warn", true)

	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			assert.Equal(t, LevelWarn, GetLevel())
		})
	}
	wg.Wait()
}

func TestSetLevel(t *testing.T) {
	setEnv(t, "debug", true)

	SetLevel(LevelWarn)
	assert.Equal(t, LevelWarn, GetLevel(), "explicit level wins over environment")

	SetLevel(Level(99))
	assert.Equal(t, MaxLevel, GetLevel())

	SetLevel(Level(-3))
	assert.Equal(t, LevelNone, GetLevel())
}

func TestShouldLog(t *testing.T) {
	setEnv(t, "", false)
	SetLevel(LevelInfo)

	assert.True(t, ShouldLog(LevelBad))
	assert.True(t, ShouldLog(LevelInfo))
	assert.False(t, ShouldLog(LevelDebug))
	assert.False(t, ShouldLog(LevelNone), "level 0 is never printed")

	SetLevel(LevelNone)
	assert.False(t, ShouldLog(LevelBad))
}
