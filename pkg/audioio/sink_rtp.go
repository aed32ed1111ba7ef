package audioio

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net"
	"sync"

	"github.com/pion/rtp"
)

const (
	// rtpPayloadType is the dynamic payload type announced for L16 stereo.
	rtpPayloadType = 96

	// rtpMaxPayload keeps packets under a typical MTU.
	rtpMaxPayload = 1200
)

// RTPSink streams the rendered signal as RTP/L16 (big-endian PCM16) over UDP.
type RTPSink struct {
	*pump

	connMu sync.Mutex
	conn   net.Conn
	seq    uint16
	ts     uint32
	ssrc   uint32
	pcm    []int16
}

// NewRTPSink creates an RTP sink sending to cfg.Device ("host:port").
func NewRTPSink(cfg Config, logger *slog.Logger) (*RTPSink, error) {
	if cfg.Device == "" {
		return nil, fmt.Errorf("rtp sink requires a destination address")
	}
	return &RTPSink{
		pump: newPump(cfg, string(BackendRTP), logger),
		seq:  uint16(rand.UintN(1 << 16)),
		ssrc: rand.Uint32(),
	}, nil
}

// Start dials the receiver and begins streaming.
func (s *RTPSink) Start(ctx context.Context, r Renderer) error {
	return s.start(ctx, r, s.dial, s.send, s.hangup)
}

func (s *RTPSink) dial() error {
	conn, err := net.Dial("udp", s.cfg.Device)
	if err != nil {
		return fmt.Errorf("dial rtp receiver: %w", err)
	}
	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	s.logger.Info("streaming tone", "dest", s.cfg.Device, "ssrc", s.ssrc)
	return nil
}

func (s *RTPSink) send(buf []float32) error {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.conn == nil {
		return ErrClosed
	}

	s.pcm = FloatToPCM16(s.pcm, buf)
	payload := PCM16ToBytesBE(s.pcm)
	frameBytes := 2 * s.cfg.Channels
	chunk := rtpMaxPayload - rtpMaxPayload%frameBytes

	for off := 0; off < len(payload); off += chunk {
		end := min(off+chunk, len(payload))
		pkt := rtp.Packet{
			Header: rtp.Header{
				Version:        2,
				PayloadType:    rtpPayloadType,
				SequenceNumber: s.seq,
				Timestamp:      s.ts,
				SSRC:           s.ssrc,
			},
			Payload: payload[off:end],
		}
		raw, err := pkt.Marshal()
		if err != nil {
			return fmt.Errorf("marshal rtp: %w", err)
		}
		if _, err := s.conn.Write(raw); err != nil {
			// UDP receivers come and go; keep streaming.
			s.logger.Debug("rtp write failed", "error", err)
		}
		s.seq++
		s.ts += uint32((end - off) / frameBytes)
	}
	return nil
}

func (s *RTPSink) hangup() {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
}

// Stop halts streaming and closes the socket.
func (s *RTPSink) Stop() error {
	s.stop()
	return nil
}

// Config returns the audio configuration.
func (s *RTPSink) Config() Config { return s.cfg }

// Name returns "rtp".
func (s *RTPSink) Name() string { return string(BackendRTP) }

// Close releases resources.
func (s *RTPSink) Close() error {
	s.close()
	return nil
}

// Stats returns sink statistics.
func (s *RTPSink) Stats() SinkStats { return s.stats() }

var _ SinkWithStats = (*RTPSink)(nil)
