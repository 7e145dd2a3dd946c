//go:build debug

package singlethread_test

import (
	"sync"
	"testing"

	"github.com/ckern-go/ckern/internal/singlethread"
)

func TestCrossGoroutinePanics(t *testing.T) {
	var g singlethread.Guard
	g.Enter("test")

	var wg sync.WaitGroup
	wg.Add(1)
	panicked := make(chan any, 1)
	go func() {
		defer wg.Done()
		defer func() { panicked <- recover() }()
		g.Enter("test")
	}()
	wg.Wait()

	if r := <-panicked; r == nil {
		t.Fatal("expected Enter from a second goroutine to panic")
	}
}
