package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"jordanella.com/autoclicker-go/internal/clicker"
)

// runControl is the part of clicker.Bot the console drives
type runControl interface {
	TogglePause() clicker.RunState
	Stop() bool
}

// watchConsole reads single-letter commands, one per line, until a stop
// command, EOF or ctx is done. A read already blocked on in is not
// interrupted; its goroutine exits after the next line or EOF.
func watchConsole(ctx context.Context, in io.Reader, ctl runControl, out io.Writer) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = l
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "p", "pause":
			switch ctl.TogglePause() {
			case clicker.StatePaused:
				fmt.Fprintln(out, "Paused (p+Enter to resume)")
			case clicker.StateRunning:
				fmt.Fprintln(out, "Resumed")
			}
		case "s", "q", "stop", "quit":
			if ctl.Stop() {
				fmt.Fprintln(out, "Stopping...")
			}
			return
		case "":
		default:
			fmt.Fprintln(out, "Commands: p = pause/resume, s = stop")
		}
	}
}
