//go:build ignore

// This file demonstrates every public call of package pager end to end. It
// is excluded from normal builds; run it directly with `go run
// pager_example.go` against a real mmu.MMU implementation such as
// mmu/simmmu.
package main

import (
	"fmt"
	"log/slog"

	"github.com/tinyrange/vpager"
	"github.com/tinyrange/vpager/internal/addr"
	"github.com/tinyrange/vpager/mmu/simmmu"
)

func main() {
	space := addr.Space{Base: 0x0000600000, Max: 0x0000600000 + 4096*16 - 1, PageSize: 4096}

	host := simmmu.New(space, 2, 4)

	p, err := pager.New(host, space, 2, 4, pager.WithLogger(slog.Default()))
	if err != nil {
		panic(err)
	}

	const pid = 1
	p.Create(pid)

	va0, ok := p.Extend(pid)
	if !ok {
		panic("extend: backing store exhausted")
	}
	fmt.Printf("extended page 0 at %#x\n", va0)

	va1, _ := p.Extend(pid)
	fmt.Printf("extended page 1 at %#x\n", va1)

	if err := p.Fault(pid, va0); err != nil {
		panic(err)
	}
	if err := p.Fault(pid, va0); err != nil { // Read -> ReadWrite escalation
		panic(err)
	}

	if rc := p.Syslog(pid, va0, 8); rc != 0 {
		panic("syslog failed")
	}

	if err := p.Fault(pid, va1); err != nil {
		panic(err)
	}

	p.Destroy(pid)
}
