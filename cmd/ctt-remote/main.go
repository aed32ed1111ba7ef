// ctt-remote sends control commands to a running tracking task.
//
// Usage:
//
//	ctt-remote [-addr host:8964] start
//	ctt-remote lambda 3
//	ctt-remote -i            # read commands from stdin
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/teslashibe/go-ctt/pkg/remote"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8964", "Remote control address")
	timeout := flag.Duration("timeout", 3*time.Second, "Dial timeout")
	interactive := flag.Bool("i", false, "Read commands from stdin, one per line")
	flag.Parse()

	client, err := remote.Dial(*addr, *timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	if !*interactive {
		cmd := strings.Join(flag.Args(), " ")
		if cmd == "" {
			flag.Usage()
			os.Exit(2)
		}
		if err := client.Send(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			os.Exit(1)
		}
		if client.Closed(200 * time.Millisecond) {
			fmt.Fprintln(os.Stderr, "⚠️  Connection closed by server (another client connected?)")
			os.Exit(1)
		}
		fmt.Printf("✅ sent %q\n", cmd)
		return
	}

	fmt.Printf("🎮 Connected to %s (start, stop, lambda N, exit)\n", *addr)
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := client.Send(line); err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
			continue
		}
		if cmd, _ := remote.ParseCommand(line); cmd.Kind == remote.CmdExit {
			return
		}
	}
}
