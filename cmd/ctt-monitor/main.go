// ctt-monitor prints the live event feed of a running tracking task.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-ctt/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8080", "Status server address")
	showStatus := flag.Bool("status", false, "Print periodic status messages")
	raw := flag.Bool("json", false, "Print raw JSON messages")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/events"}
	backoff := 500 * time.Millisecond

	for ctx.Err() == nil {
		err := watch(ctx, u.String(), *showStatus, *raw)
		if ctx.Err() != nil {
			return
		}
		fmt.Fprintf(os.Stderr, "⚠️  %v (reconnecting in %v)\n", err, backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, 10*time.Second)
	}
}

func watch(ctx context.Context, endpoint string, showStatus, raw bool) error {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	ws, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()

	fmt.Printf("📡 Connected to %s\n", endpoint)
	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return err
		}
		if raw {
			fmt.Println(string(data))
			continue
		}
		msg, err := protocol.ParseMessage(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "⚠️  %v\n", err)
			continue
		}
		if line := format(msg, showStatus); line != "" {
			ts := time.UnixMilli(msg.Timestamp).Format("15:04:05.000")
			fmt.Printf("%s %s\n", ts, line)
		}
	}
}

func format(msg *protocol.Message, showStatus bool) string {
	switch msg.Type {
	case protocol.TypeEvent:
		ev, err := msg.GetEventData()
		if err != nil {
			return ""
		}
		return "📈 " + ev.String()

	case protocol.TypeStatus:
		if !showStatus {
			return ""
		}
		st, err := msg.GetStatusData()
		if err != nil {
			return ""
		}
		return fmt.Sprintf("📊 running=%v lambda=%v offset=%+.3f far=%v proper=%.0fs remote=%v",
			st.Running, st.Difficulty, st.Offset, st.Far, st.ProperSeconds, st.RemoteConnected)

	case protocol.TypeRemote:
		rd, err := msg.GetRemoteData()
		if err != nil {
			return ""
		}
		if rd.Connected {
			return "🔌 remote connected " + rd.Peer
		}
		return "🔌 remote disconnected " + rd.Peer

	case protocol.TypeTrial:
		tr, err := msg.GetTrialData()
		if err != nil {
			return ""
		}
		return fmt.Sprintf("🏁 trial %s lambda=%v samples=%d rms=%.4f far=%.1f%% longest=%v",
			tr.TrialID, tr.Lambda, tr.Samples, tr.RMSOffset, tr.FarFraction*100, tr.LongestProper.Round(time.Millisecond))

	case protocol.TypeError:
		ed, err := msg.GetErrorData()
		if err != nil {
			return ""
		}
		return "❌ " + ed.Message
	}
	return ""
}
