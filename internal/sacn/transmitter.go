package sacn

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/lumenstage/lumen/internal/dmx"
	"github.com/lumenstage/lumen/internal/engineerr"
)

// FrameInterval is the pacing interval between multiverse snapshots:
// 40 ms, 25 Hz.
const FrameInterval = 40 * time.Millisecond

// overrunThreshold is how late a tick dispatch may run before the pacing
// loop logs a jitter warning.
const overrunThreshold = FrameInterval / 4

// telemetryEvery is how many frames pass between rolling-average log
// lines.
const telemetryEvery = 100

// SourceConfig describes one sACN source: its identity and where it
// streams.
type SourceConfig struct {
	Name          string
	DestinationIP string
	Priority      byte
	PreviewData   bool
	// Universes limits which universes this source emits. Empty means
	// every universe present in the snapshot.
	Universes []dmx.UniverseID
}

// LoadOrCreateCID returns the component identifier persisted at path,
// generating and persisting a fresh random one on first run.
func LoadOrCreateCID(path string) (CID, error) {
	var cid CID
	raw, err := os.ReadFile(path)
	if err == nil && len(raw) == len(cid) {
		copy(cid[:], raw)
		return cid, nil
	}
	if _, err := rand.Read(cid[:]); err != nil {
		return cid, fmt.Errorf("sacn: generate cid: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return cid, fmt.Errorf("sacn: persist cid: %w", err)
	}
	if err := os.WriteFile(path, cid[:], 0o644); err != nil {
		return cid, fmt.Errorf("sacn: persist cid: %w", err)
	}
	return cid, nil
}

// Source is one running sACN sender: a bound UDP socket, per-universe
// sequence numbers, and a snapshot inbox fed by the pacing loop.
type Source struct {
	config SourceConfig
	cid    CID

	conn      *net.UDPConn
	sequences map[dmx.UniverseID]byte

	snapshots chan *dmx.Multiverse

	mu      sync.Mutex
	dropped uint64
}

// NewSource binds a UDP socket toward config's destination and returns
// the ready-to-run source.
func NewSource(config SourceConfig, cid CID) (*Source, error) {
	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(config.DestinationIP, strconv.Itoa(DefaultPort)))
	if err != nil {
		return nil, fmt.Errorf("source %q: %v: %w", config.Name, err, engineerr.ErrSocketBind)
	}
	conn, err := net.DialUDP("udp4", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("source %q: %v: %w", config.Name, err, engineerr.ErrSocketBind)
	}
	return &Source{
		config:    config,
		cid:       cid,
		conn:      conn,
		sequences: make(map[dmx.UniverseID]byte),
		snapshots: make(chan *dmx.Multiverse, 1),
	}, nil
}

// offer hands a snapshot to the sender without ever blocking the pacing
// loop: if the sender is still busy with the previous frame, the new one
// is dropped and counted.
func (s *Source) offer(snapshot *dmx.Multiverse) {
	select {
	case s.snapshots <- snapshot:
	default:
		s.mu.Lock()
		s.dropped++
		dropped := s.dropped
		s.mu.Unlock()
		if dropped%telemetryEvery == 1 {
			log.Printf("📡 sACN source %q: sender busy, %s frames dropped so far", s.config.Name, humanize.Comma(int64(dropped)))
		}
	}
}

// run drains snapshots and emits one data packet per universe until ctx
// is cancelled. Send errors are logged and never abort the sender.
func (s *Source) run(ctx context.Context) error {
	defer s.conn.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case snapshot := <-s.snapshots:
			s.send(snapshot)
		}
	}
}

func (s *Source) send(snapshot *dmx.Multiverse) {
	for _, id := range s.universesToSend(snapshot) {
		universe, ok := snapshot.Get(id)
		if !ok {
			continue
		}
		seq := s.sequences[id]
		s.sequences[id] = seq + 1

		packet := &DataPacket{
			CID:         s.cid,
			SourceName:  s.config.Name,
			Priority:    s.config.Priority,
			Sequence:    seq,
			PreviewData: s.config.PreviewData,
			Universe:    uint16(id),
			Data:        universe.Slots[:],
		}
		raw, err := packet.Encode()
		if err != nil {
			log.Printf("sACN source %q universe %d: %v", s.config.Name, id, err)
			continue
		}
		if _, err := s.conn.Write(raw); err != nil {
			log.Printf("sACN source %q universe %d: send: %v", s.config.Name, id, err)
		}
	}
}

func (s *Source) universesToSend(snapshot *dmx.Multiverse) []dmx.UniverseID {
	if len(s.config.Universes) == 0 {
		return snapshot.UniverseIDs()
	}
	return s.config.Universes
}

// Transmitter paces multiverse snapshots to every configured source at
// 25 Hz with bounded jitter.
type Transmitter struct {
	sources  []*Source
	snapshot func() *dmx.Multiverse
}

// NewTransmitter builds the sources from configs, sharing one persisted
// CID, and wires snapshot as the per-tick multiverse provider.
func NewTransmitter(configs []SourceConfig, cid CID, snapshot func() *dmx.Multiverse) (*Transmitter, error) {
	sources := make([]*Source, 0, len(configs))
	for _, cfg := range configs {
		src, err := NewSource(cfg, cid)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return &Transmitter{sources: sources, snapshot: snapshot}, nil
}

// Run starts one sender goroutine per source plus the pacing loop, and
// blocks until ctx is cancelled. Sender shutdown joins through the group.
func (t *Transmitter) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, src := range t.sources {
		src := src
		group.Go(func() error { return src.run(ctx) })
	}
	group.Go(func() error { return t.pace(ctx) })

	log.Printf("📡 sACN transmitter started: %d source(s), %v frame interval", len(t.sources), FrameInterval)
	return group.Wait()
}

// pace fires every FrameInterval, measured against the source start time
// so drift never accumulates, and logs overruns plus a rolling dispatch
// lag average every 100 frames.
func (t *Transmitter) pace(ctx context.Context) error {
	start := time.Now()
	var frameCount uint64
	var lagSum time.Duration

	timer := time.NewTimer(FrameInterval)
	defer timer.Stop()

	for {
		target := start.Add(FrameInterval * time.Duration(frameCount))
		now := time.Now()
		if now.Before(target) && frameCount > 0 {
			timer.Reset(target.Sub(now))
			select {
			case <-ctx.Done():
				return nil
			case <-timer.C:
			}
			now = time.Now()
		} else if lag := now.Sub(target); lag > overrunThreshold && frameCount > 0 {
			log.Printf("📡 sACN pacing overrun: frame %s dispatched %v late", humanize.Comma(int64(frameCount)), lag.Round(time.Microsecond))
		}
		if ctx.Err() != nil {
			return nil
		}

		lagSum += now.Sub(target)
		frameCount++
		if frameCount%telemetryEvery == 0 {
			avg := lagSum / telemetryEvery
			lagSum = 0
			log.Printf("📡 sACN pacing: %s frames sent, average dispatch lag %v", humanize.Comma(int64(frameCount)), avg.Round(time.Microsecond))
		}

		snapshot := t.snapshot()
		for _, src := range t.sources {
			src.offer(snapshot)
		}
	}
}
