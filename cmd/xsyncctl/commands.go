package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/opencpi/xkit/pkg/debug/xdiag"
	"github.com/opencpi/xkit/pkg/os/xerrno"
	"github.com/opencpi/xkit/pkg/sync/xsync"
)

// 压力自检默认参数。
const (
	defaultGoroutines = 8
	defaultIterations = 10000
)

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createErrnoCommand(),
		createStressCommand(),
		createStackCommand(),
		createLevelCommand(),
	}
}

func createErrnoCommand() *cli.Command {
	return &cli.Command{
		Name:      "errno",
		Usage:     "翻译平台原生错误码",
		ArgsUsage: "<code> [context]",
		Action: func(_ context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) == 0 || len(args) > 2 {
				return &usageError{msg: "errno 需要 <code> [context] 参数"}
			}
			code, err := strconv.Atoi(args[0])
			if err != nil {
				return &usageError{msg: fmt.Sprintf("无效的错误码 %q", args[0])}
			}
			var ctxText string
			if len(args) == 2 {
				ctxText = args[1]
			}
			fmt.Fprintln(cmd.Root().Writer, xerrno.Describe(xerrno.Code(code), ctxText))
			return nil
		},
	}
}

func createStressCommand() *cli.Command {
	return &cli.Command{
		Name:  "stress",
		Usage: "对指定原语运行计数器保护压力自检",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "primitive",
				Aliases: []string{"p"},
				Usage:   "原语类型: " + strings.Join(primitives, "|"),
				Value:   "mutex",
			},
			&cli.IntFlag{
				Name:    "goroutines",
				Aliases: []string{"g"},
				Usage:   "并发 goroutine 数",
				Value:   defaultGoroutines,
			},
			&cli.IntFlag{
				Name:    "iterations",
				Aliases: []string{"n"},
				Usage:   "每个 goroutine 的临界区次数",
				Value:   defaultIterations,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := stressConfig{
				primitive:  cmd.String("primitive"),
				goroutines: cmd.Int("goroutines"),
				iterations: cmd.Int("iterations"),
			}
			if err := cfg.validate(); err != nil {
				return err
			}
			res, err := runStress(ctx, cfg)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.Root().Writer, res)
			return res.check()
		},
	}
}

func createStackCommand() *cli.Command {
	return &cli.Command{
		Name:  "stack",
		Usage: "转储 goroutine 堆栈（直写，不依赖堆分配）",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "all",
				Aliases: []string{"a"},
				Usage:   "包含所有 goroutine",
			},
			&cli.IntFlag{
				Name:  "fd",
				Usage: "输出文件描述符",
				Value: xerrno.Stdout,
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			if xdiag.DumpStack(cmd.Int("fd"), cmd.Bool("all")) == 0 {
				return fmt.Errorf("stack dump to fd %d produced no output", cmd.Int("fd"))
			}
			return nil
		},
	}
}

func createLevelCommand() *cli.Command {
	return &cli.Command{
		Name:  "level",
		Usage: "查看生效的诊断级别与构建信息",
		Action: func(_ context.Context, cmd *cli.Command) error {
			level := xdiag.GetLevel()
			w := cmd.Root().Writer
			fmt.Fprintf(w, "level:   %s (%d)\n", level, int(level))
			fmt.Fprintf(w, "backend: %s\n", xsync.BackendFamily())
			fmt.Fprintf(w, "checks:  %t\n", xdiag.ChecksEnabled())
			return nil
		},
	}
}
