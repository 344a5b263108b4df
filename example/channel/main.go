package main

import (
	"context"
	"fmt"
	"log"
	"time"

	mavbridge "github.com/AryaMajumder/px4-jmavsim"
)

func main() {
	flow, err := mavbridge.Conf("../../config.yaml")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink, messages, closeMessages := mavbridge.NewChannelSink("fanout", 32)
	defer closeMessages()

	go fanoutWorker("forward", messages)

	if err := flow.Run(ctx, mavbridge.StreamOutSink(sink)); err != nil && err != context.Canceled {
		log.Fatalf("bridge error: %v", err)
	}
}

func fanoutWorker(name string, messages <-chan mavbridge.Message) {
	for msg := range messages {
		fmt.Printf("[%s] %s %d bytes at %s\n", name, msg.Topic, len(msg.Payload), time.Now().Format(time.RFC3339))
		// TODO: forward to downstream DB/API.
	}
}
