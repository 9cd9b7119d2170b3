// xsyncctl 是 xsync 同步原语层的命令行工具。
//
// 用法:
//
//	xsyncctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      诊断配置文件（YAML/JSON），加载后立即生效
//	-l, --log-level   覆盖诊断日志级别（名称或 0~20 的数字）
//
// 命令:
//
//	errno <code> [context]   翻译平台原生错误码
//	stress                   对指定原语运行计数器保护压力自检
//	stack                    转储当前 goroutine 堆栈
//	level                    查看生效的诊断级别与构建信息
//
// 退出码:
//
//	0: 命令执行成功
//	1: 命令执行失败（含压力自检结果不一致）
//	2: 参数错误
//	N: 命令以 cli.Exit 返回时使用其指定的退出码
//
// 示例:
//
//	xsyncctl errno 35 mutex.lock
//	xsyncctl stress --primitive rwlock --goroutines 16 --iterations 10000
//	xsyncctl -c /etc/ocpi/diag.yaml level
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/opencpi/xkit/pkg/debug/xdiag"
)

// 版本信息（可通过 -ldflags 注入）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run(os.Args))
}

// createApp 创建 CLI 应用，普通输出写入 stdout。
func createApp(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "xsyncctl",
		Usage:   "xsync 同步原语层命令行工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Writer:  stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "诊断配置文件路径（.yaml/.yml/.json）",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "覆盖诊断日志级别（none/bad/warn/info/debug/debug2 或 0~20）",
			},
		},
		Before:         applyGlobalFlags,
		Commands:       createCommands(),
		DefaultCommand: "help",
		// 设计决策: 禁止 urfave/cli 直接调用 os.Exit，由 run() 统一映射退出码。
		ExitErrHandler: func(_ context.Context, _ *cli.Command, err error) {
			if _, ok := err.(cli.ExitCoder); ok {
				fmt.Fprintln(os.Stderr, err)
			}
		},
	}
}

// applyGlobalFlags 在任何子命令之前加载诊断配置。
func applyGlobalFlags(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if path := cmd.String("config"); path != "" {
		cfg, err := xdiag.LoadConfig(path)
		if err != nil {
			return ctx, &usageError{msg: err.Error()}
		}
		if err := xdiag.Apply(cfg); err != nil {
			return ctx, err
		}
	}
	if s := cmd.String("log-level"); s != "" {
		level, err := xdiag.ParseLevel(s)
		if err != nil {
			return ctx, &usageError{msg: err.Error()}
		}
		xdiag.SetLevel(level)
	}
	return ctx, nil
}

func run(args []string) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	stop := setupSignalHandler(cancel)

	err := createApp(os.Stdout).Run(ctx, args)
	stop()

	// 进程退出前的诊断输出改走直写路径
	xdiag.BeginShutdown()
	return exitCode(err)
}

// exitCode 将命令错误映射为退出码。cli.ExitCoder 保留其自身的退出码，
// 消息已由 ExitErrHandler 输出。
func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var usageErr *usageError
	if errors.As(err, &usageErr) {
		fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
		return 2
	}
	var ec cli.ExitCoder
	if errors.As(err, &ec) {
		return ec.ExitCode()
	}
	fmt.Fprintf(os.Stderr, "错误: %v\n", err)
	return 1
}

// setupSignalHandler 第一次信号取消 context，第二次强制退出。
// 返回的 stop 停止监听并等待处理 goroutine 退出。
func setupSignalHandler(cancel context.CancelFunc) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	quit := make(chan struct{})

	var wg sync.WaitGroup
	wg.Go(func() {
		for first := true; ; first = false {
			select {
			case <-sigCh:
			case <-quit:
				return
			}
			if first {
				cancel()
				continue
			}
			xdiag.BeginShutdown()
			xdiag.LogPrint(xdiag.LevelWarn, "xsyncctl: second signal, forcing exit")
			os.Exit(130)
		}
	})

	var once sync.Once
	return func() {
		once.Do(func() {
			signal.Stop(sigCh)
			close(quit)
			wg.Wait()
		})
	}
}

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }
