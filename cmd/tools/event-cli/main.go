package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/annel0/liquidsim/internal/eventbus"
)

const (
	defaultServerAddr = "nats://127.0.0.1:4222"
	timeFormat        = "15:04:05"
)

func main() {
	var (
		serverAddr = flag.String("server", defaultServerAddr, "NATS server address")
		stream     = flag.String("stream", "LIQUID_EVENTS", "JetStream stream name")
		command    = flag.String("cmd", "tail", "Command: tail, stats")
		eventTypes = flag.String("types", "", "Event types filter (comma-separated)")
		sources    = flag.String("sources", "", "Sources filter (comma-separated)")
		limit      = flag.Int("limit", 100, "Maximum number of events")
		follow     = flag.Bool("follow", false, "Follow new events (like tail -f)")
		wait       = flag.Duration("wait", 5*time.Second, "Stop after this long without new events")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*serverAddr, *stream, 0)
	if err != nil {
		log.Fatalf("❌ Failed to connect to NATS: %v", err)
	}
	defer bus.Close()

	filter := eventbus.Filter{
		Types:   parseStringList(*eventTypes),
		Sources: parseStringList(*sources),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *command {
	case "tail":
		if err := tailEvents(ctx, bus, filter, &TailOptions{Limit: *limit, Follow: *follow, Wait: *wait}); err != nil {
			log.Fatalf("❌ Tail failed: %v", err)
		}

	case "stats":
		if err := showStats(ctx, bus, filter, *wait); err != nil {
			log.Fatalf("❌ Stats failed: %v", err)
		}

	default:
		fmt.Printf("❌ Unknown command: %s\n", *command)
		fmt.Println("Available commands: tail, stats")
		os.Exit(1)
	}
}

type TailOptions struct {
	Limit  int
	Follow bool
	Wait   time.Duration
}

// tailEvents выводит события стрима по мере поступления
func tailEvents(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter, opts *TailOptions) error {
	fmt.Printf("🎬 Tailing events (limit: %d, follow: %v)\n", opts.Limit, opts.Follow)

	events := make(chan *eventbus.Envelope, 64)
	sub, err := bus.Subscribe(ctx, filter, func(ctx context.Context, ev *eventbus.Envelope) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	eventCount := 0
	idle := time.NewTimer(opts.Wait)
	defer idle.Stop()

	for {
		select {
		case ev := <-events:
			printEvent(ev)
			eventCount++
			if !opts.Follow && eventCount >= opts.Limit {
				fmt.Printf("\n📊 Total events: %d\n", eventCount)
				return nil
			}
			idle.Reset(opts.Wait)
		case <-idle.C:
			if opts.Follow {
				idle.Reset(opts.Wait)
				continue
			}
			fmt.Printf("\n📊 Total events: %d\n", eventCount)
			return nil
		case <-ctx.Done():
			fmt.Printf("\n📊 Total events: %d\n", eventCount)
			return nil
		}
	}
}

// showStats считает события по типам, пока стрим не затихнет
func showStats(ctx context.Context, bus eventbus.EventBus, filter eventbus.Filter, wait time.Duration) error {
	fmt.Println("📊 Event statistics")

	var (
		mu     sync.Mutex
		counts = make(map[string]int)
		last   = time.Now()
	)
	sub, err := bus.Subscribe(ctx, filter, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		counts[ev.EventType]++
		last = time.Now()
		mu.Unlock()
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	defer sub.Unsubscribe()

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

loop:
	for {
		select {
		case <-ticker.C:
			mu.Lock()
			quiet := time.Since(last) > wait
			mu.Unlock()
			if quiet {
				break loop
			}
		case <-ctx.Done():
			break loop
		}
	}

	mu.Lock()
	defer mu.Unlock()

	types := make([]string, 0, len(counts))
	total := 0
	for t, n := range counts {
		types = append(types, t)
		total += n
	}
	sort.Strings(types)

	fmt.Printf("Total events: %d\n", total)
	fmt.Println("\nBy event type:")
	for _, t := range types {
		fmt.Printf("  %s: %d events\n", t, counts[t])
	}
	return nil
}

// printEvent выводит событие в читаемом формате
func printEvent(ev *eventbus.Envelope) {
	fmt.Printf("[%s] %s tick=%s [%s] %s\n",
		ev.Timestamp.Format(timeFormat),
		ev.Source,
		ev.CorrelationID,
		ev.EventType,
		ev.ID)

	// Добавляем детали в зависимости от типа события
	switch ev.EventType {
	case eventbus.EventTypeSound:
		var p eventbus.SoundPayload
		if err := json.Unmarshal(ev.Payload, &p); err == nil {
			fmt.Printf("  Sound: %s at (%d,%d,%d)\n", p.Sound, p.Pos.X, p.Pos.Y, p.Pos.Z)
		}
	case eventbus.EventTypeParticles:
		var p eventbus.ParticlesPayload
		if err := json.Unmarshal(ev.Payload, &p); err == nil {
			fmt.Printf("  Particles: %.0f-%.0f at (%.1f,%.1f,%.1f)\n",
				p.Spec.MinQuantity, p.Spec.MaxQuantity,
				p.Spec.MinPos.X, p.Spec.MinPos.Y, p.Spec.MinPos.Z)
		}
	case eventbus.EventTypeBlock:
		var p eventbus.BlockPayload
		if err := json.Unmarshal(ev.Payload, &p); err == nil {
			c := p.Change
			fmt.Printf("  Block: (%d,%d,%d) %s -> %s\n", c.Pos.X, c.Pos.Y, c.Pos.Z, c.From, c.To)
		}
	}
}

// parseStringList парсит строку с разделителями-запятыми
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
