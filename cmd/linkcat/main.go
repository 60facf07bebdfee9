package main

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strings"
	"time"
)

// writerFunc adapts a function to io.Writer
type writerFunc func(p []byte) (n int, err error)

func (f writerFunc) Write(p []byte) (n int, err error) { return f(p) }

var errFound = errors.New("until string seen")

func main() {
	addr := flag.String("addr", "127.0.0.1:5555", "serial bridge address")
	until := flag.String("until", "", "stop when cable output contains this substring (case-insensitive); empty to disable")
	timeout := flag.Duration("timeout", 0, "optional wall-clock timeout (e.g. 30s, 2m); 0 disables")
	noStdin := flag.Bool("nostdin", false, "do not forward stdin to the cable")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("connect %s: %v", *addr, err)
	}
	defer conn.Close()
	start := time.Now()
	if *timeout > 0 {
		conn.SetReadDeadline(start.Add(*timeout))
	}

	if !*noStdin {
		go func() {
			if _, err := io.Copy(conn, os.Stdin); err != nil {
				log.Printf("stdin: %v", err)
			}
			if tc, ok := conn.(*net.TCPConn); ok {
				tc.CloseWrite()
			}
		}()
	}

	// Stream cable output to stdout and capture it for pattern detection
	var seen bytes.Buffer
	want := strings.ToLower(*until)
	w := io.Writer(os.Stdout)
	if want != "" {
		w = io.MultiWriter(os.Stdout, writerFunc(func(p []byte) (int, error) {
			seen.Write(p)
			if strings.Contains(strings.ToLower(seen.String()), want) {
				return len(p), errFound
			}
			// keep only enough tail to match across reads
			if n := seen.Len() - len(want); n > 4096 {
				seen.Next(n)
			}
			return len(p), nil
		}))
	}

	n, err := io.Copy(w, conn)
	switch {
	case errors.Is(err, errFound):
		fmt.Fprintf(os.Stderr, "\nDetected '%s' on the cable.\n", *until)
		fmt.Fprintf(os.Stderr, "Done: bytes=%d elapsed=%s\n", n, time.Since(start).Truncate(time.Millisecond))
	case errors.Is(err, os.ErrDeadlineExceeded):
		fmt.Fprintf(os.Stderr, "\nTimeout after %s.\n", time.Since(start).Truncate(time.Millisecond))
		os.Exit(2)
	case err != nil:
		log.Fatalf("cable: %v", err)
	default:
		if want != "" {
			fmt.Fprintf(os.Stderr, "\nCable closed before '%s' was seen.\n", *until)
			os.Exit(1)
		}
	}
}
