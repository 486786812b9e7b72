package main

import (
	"context"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"geocoin.ai/internal/client"
	"geocoin.ai/internal/protocol"
)

func main() {
	var (
		url      = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name     = flag.String("name", "bot", "client name")
		actions  = flag.Int("actions", 50, "number of actions to send (0: until interrupted)")
		interval = flag.Duration("interval", 200*time.Millisecond, "delay between actions")
		seed     = flag.Int64("seed", 1, "bot rng seed")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := client.Dial(ctx, *url, *name, "")
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer c.Close()

	welcome := c.Welcome()
	logger.Printf("WELCOME session=%s world=%s caches=%d", welcome.SessionID, welcome.WorldID, len(welcome.Markers))
	if len(welcome.Markers) == 0 {
		logger.Printf("no caches to play with")
		return
	}

	b := newBot(welcome.Markers, rand.New(rand.NewSource(*seed)))
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	sent := 0
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-c.Events():
			if !ok {
				return
			}
			switch {
			case ev.Err != nil:
				logger.Printf("connection: %v", ev.Err)
				return
			case ev.State != nil:
				b.observe(*ev.State)
			case ev.Ack != nil && !ev.Ack.Accepted:
				logger.Printf("ACK %s rejected: %s", ev.Ack.AckFor, ev.Ack.Code)
			}
		case <-ticker.C:
			if *actions > 0 && sent >= *actions {
				logger.Printf("done: points=%d", b.points)
				return
			}
			action, cell := b.next()
			if _, err := c.Act(action, cell); err != nil {
				logger.Printf("send: %v", err)
				return
			}
			sent++
		}
	}
}

// bot collects while caches have coins and deposits at random otherwise.
type bot struct {
	cells  [][2]int
	coins  map[[2]int]int
	points int
	rng    *rand.Rand
}

func newBot(markers []protocol.Marker, rng *rand.Rand) *bot {
	b := &bot{coins: map[[2]int]int{}, rng: rng}
	for _, m := range markers {
		b.cells = append(b.cells, m.Cell)
		b.coins[m.Cell] = m.Coins
	}
	return b
}

func (b *bot) observe(st protocol.StateMsg) {
	b.points = st.Status.Points
	for _, m := range st.Markers {
		b.coins[m.Cell] = m.Coins
	}
}

func (b *bot) next() (string, [2]int) {
	cell := b.cells[b.rng.Intn(len(b.cells))]
	if b.points > 0 && (b.coins[cell] == 0 || b.rng.Intn(3) == 0) {
		return protocol.ActDeposit, cell
	}
	return protocol.ActCollect, cell
}
