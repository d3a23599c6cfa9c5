package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	stan "github.com/nats-io/stan.go"
)

// Ops tool: tails wire-order notifications from the sync service.
func main() {
	clusterID := getenv("STAN_CLUSTER_ID", "bloom-cluster")
	clientID := getenv("STAN_SUB_ID", fmt.Sprintf("wire-notifier-%d", time.Now().UnixNano()))
	natsURL := getenv("NATS_URL", "nats://localhost:4222")
	subject := getenv("STAN_SUBJECT", "wire.orders")

	sc, err := stan.Connect(clusterID, clientID, stan.NatsURL(natsURL))
	if err != nil {
		log.Fatalf("stan connect: %v", err)
	}
	defer sc.Close()

	sub, err := sc.Subscribe(subject, func(m *stan.Msg) {
		log.Printf("%s", m.Data)
	}, stan.StartWithLastReceived())
	if err != nil {
		log.Fatalf("stan subscribe: %v", err)
	}
	defer sub.Unsubscribe()

	log.Printf("listening for wire-order notifications on %s", subject)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}
