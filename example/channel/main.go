package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/ghalamif/NetCandle"
)

// Feeds synthetic telemetry through an in-process publisher and reads the
// rebuilt scenes back from a channel sink.
func main() {
	flow, err := netcandle.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sink, scenes, closeScenes := netcandle.NewChannelSink("fanout", 32)
	defer closeScenes()

	pub := netcandle.NewPublisher(flow.Config().Policy.Schema)
	go simulate(ctx, pub)
	go printScenes(scenes)

	if err := flow.StreamIN(netcandle.StreamInPublisher(pub)).Run(ctx, netcandle.StreamOutSink(sink)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}

func simulate(ctx context.Context, pub *netcandle.Publisher) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		score, alert := 90+rand.Float64()*10, "NONE"
		if i%20 == 19 {
			score, alert = 12, "KERNEL_TAMPER"
		}
		line := fmt.Sprintf("%s\t%.1f\t%.1f\t%.0f\t%s",
			time.Now().Format(time.TimeOnly), 50+rand.Float64()*150, 20+rand.Float64()*80, score, alert)
		if err := pub.Publish(ctx, line); err != nil {
			log.Printf("publish: %v", err)
			return
		}
	}
}

func printScenes(scenes <-chan *netcandle.Scene) {
	for sc := range scenes {
		fmt.Printf("[scene] cycle=%d candles=%d trigger=%s\n", sc.Cycle, len(sc.Candles), sc.Trigger.Timestamp)
	}
}
