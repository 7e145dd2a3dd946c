package singlethread_test

import (
	"testing"

	"github.com/ckern-go/ckern/internal/singlethread"
)

func TestSameGoroutineNeverPanics(t *testing.T) {
	var g singlethread.Guard
	for i := 0; i < 3; i++ {
		g.Enter("test")
	}
}

func TestReleaseAllowsNewOwner(t *testing.T) {
	var g singlethread.Guard
	g.Enter("test")
	g.Release()
	g.Enter("test")
}
