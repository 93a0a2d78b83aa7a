// Command vpager-harness is a debug driver for the pager: it wires a
// package pager instance to a mmu/simmmu reference MMU, warms up a
// config-supplied set of fixture client processes concurrently, and, with
// -interactive, drops into a single-step console for extend/fault/syslog/destroy
// commands — the external harness the spec describes as "out of scope for
// the core but assumed to exist."
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	vpager "github.com/tinyrange/vpager"
	"github.com/tinyrange/vpager/internal/addr"
	"github.com/tinyrange/vpager/internal/config"
	"github.com/tinyrange/vpager/mmu/simmmu"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vpager-harness: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Path to a pager config YAML file (default: built-in example)")
	dbg := flag.Bool("debug", false, "Enable debug logging")
	interactive := flag.Bool("interactive", false, "Drop into an interactive console after warm-up")
	flag.Parse()

	level := slog.LevelInfo
	if *dbg {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg := config.Default()
	if *configPath != "" {
		cfg = config.Load(*configPath)
	}

	space := addr.Space{Base: cfg.Base, Max: cfg.Max, PageSize: cfg.PageSize}
	host := simmmu.New(space, cfg.NFrames, cfg.NBlocks)
	defer host.Close()

	p, err := vpager.New(host, space, cfg.NFrames, cfg.NBlocks)
	if err != nil {
		return fmt.Errorf("create pager: %w", err)
	}

	if err := warmUp(context.Background(), p, cfg); err != nil {
		return fmt.Errorf("warm up fixtures: %w", err)
	}

	if *interactive {
		return runConsole(p, space)
	}
	return nil
}

// warmUp creates every fixture process from cfg and, concurrently, extends
// and faults each of its pages — exercising §5's concurrency model (every
// pager call synchronizes on the same lock regardless of which goroutine
// calls it) under a visible progress bar.
func warmUp(ctx context.Context, p *vpager.Pager, cfg config.Config) error {
	totalPages := 0
	for _, fx := range cfg.Processes {
		p.Create(fx.Pid)
		totalPages += fx.Pages
	}

	bar := progressbar.Default(int64(totalPages), "warming up fixtures")
	defer bar.Close()

	g, _ := errgroup.WithContext(ctx)
	for _, fx := range cfg.Processes {
		fx := fx
		g.Go(func() error {
			for i := 0; i < fx.Pages; i++ {
				va, ok := p.Extend(fx.Pid)
				if !ok {
					return fmt.Errorf("process %q (pid %d): backing store exhausted at page %d", fx.Name, fx.Pid, i)
				}
				if err := p.Fault(fx.Pid, va); err != nil {
					return fmt.Errorf("process %q (pid %d): fault page %d: %w", fx.Name, fx.Pid, i, err)
				}
				bar.Add(1)
			}
			return nil
		})
	}
	return g.Wait()
}

// runConsole is a line-oriented REPL for single-stepping pager calls. It
// switches stdin to raw mode only to detect whether it is attached to a
// real terminal before falling back to plain line buffering, the same
// term.IsTerminal/MakeRaw/Restore sequence cmd/cc/main.go uses around its
// own console loop.
func runConsole(p *vpager.Pager, space addr.Space) error {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		oldState, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("enable raw mode: %w", err)
		}
		defer term.Restore(fd, oldState)
	}

	fmt.Fprintln(os.Stdout, "vpager-harness console. commands: create <pid> | extend <pid> | fault <pid> <addr> | syslog <pid> <addr> <len> | destroy <pid> | quit")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case "quit", "exit":
			return nil
		case "create":
			pid, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintln(os.Stdout, "usage: create <pid>")
				continue
			}
			p.Create(pid)
		case "extend":
			pid, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintln(os.Stdout, "usage: extend <pid>")
				continue
			}
			va, ok := p.Extend(pid)
			if !ok {
				fmt.Fprintln(os.Stdout, "extend: backing store exhausted")
				continue
			}
			fmt.Fprintf(os.Stdout, "extended %#x\n", va)
		case "fault":
			if len(fields) < 3 {
				fmt.Fprintln(os.Stdout, "usage: fault <pid> <addr>")
				continue
			}
			pid, _ := strconv.Atoi(fields[1])
			va, err := strconv.ParseUint(strings.TrimPrefix(fields[2], "0x"), 16, 64)
			if err != nil {
				fmt.Fprintln(os.Stdout, "usage: fault <pid> <hex-addr>")
				continue
			}
			if err := p.Fault(pid, va); err != nil {
				fmt.Fprintf(os.Stdout, "fault: %v\n", err)
			}
		case "syslog":
			if len(fields) < 4 {
				fmt.Fprintln(os.Stdout, "usage: syslog <pid> <addr> <len>")
				continue
			}
			pid, _ := strconv.Atoi(fields[1])
			va, err := strconv.ParseUint(strings.TrimPrefix(fields[2], "0x"), 16, 64)
			if err != nil {
				fmt.Fprintln(os.Stdout, "usage: syslog <pid> <hex-addr> <len>")
				continue
			}
			length, _ := strconv.Atoi(fields[3])
			if rc := p.Syslog(pid, va, length); rc != 0 {
				fmt.Fprintf(os.Stdout, "syslog: rc=%d\n", rc)
			}
		case "destroy":
			pid, err := strconv.Atoi(fields[1])
			if err != nil {
				fmt.Fprintln(os.Stdout, "usage: destroy <pid>")
				continue
			}
			p.Destroy(pid)
		default:
			fmt.Fprintf(os.Stdout, "unknown command %q\n", fields[0])
		}
	}
	return scanner.Err()
}
