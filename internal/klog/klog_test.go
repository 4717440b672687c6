package klog

import "testing"

type lines []string

func (l *lines) WriteLineString(s string) { *l = append(*l, s) }

func TestPrintfWritesLine(t *testing.T) {
	var got lines
	SetOutput(&got)
	defer SetOutput(nil)

	Printf("arch: %s early init", "host")
	Println("done")

	if len(got) != 2 || got[0] != "arch: host early init" || got[1] != "done" {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestDetachedDropsLines(t *testing.T) {
	SetOutput(nil)
	Printf("dropped %d", 1)
	Println("dropped")
}
