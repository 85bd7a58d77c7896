package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/ghalamif/NetCandle/pkg/netcandle"
)

func main() {
	flow, err := netcandle.Conf("../../data/config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	callback := func(sc *netcandle.Scene) error {
		t := sc.Trigger
		marker := ""
		if n := len(sc.Candles); n > 0 && sc.Candles[n-1].Anomalous {
			marker = " !"
		}
		fmt.Printf("cycle=%d len=%d/%d ts=%s tx=%g rx=%g alert=%s%s\n",
			sc.Cycle, len(sc.Candles), sc.Capacity, t.Timestamp, t.TxRate, t.RxRate, t.AlertID, marker)
		return nil
	}

	if err := flow.Run(ctx, netcandle.StreamOutCallback("stdout", callback)); err != nil && err != context.Canceled {
		log.Fatalf("runtime error: %v", err)
	}
}
