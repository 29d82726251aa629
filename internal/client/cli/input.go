package cli

import (
	"bufio"
	"context"
	"io"
	"strings"
)

// readLines delivers input lines, with the trailing newline trimmed, until
// r is exhausted or ctx ends. The reader goroutine may stay blocked in Read
// after ctx ends; it exits with the process.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		br, ok := r.(*bufio.Reader)
		if !ok {
			br = bufio.NewReader(r)
		}
		for {
			line, err := br.ReadString('\n')
			if len(line) > 0 || err == nil {
				select {
				case lines <- strings.TrimRight(line, "\r\n"):
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return lines
}
