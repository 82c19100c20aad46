package main

import (
	"context"
	"fmt"
	"os"
	"time"

	gosdk "github.com/example/streamfusion/pkg/sdk/go"
)

func main() {
	addr := os.Getenv("STREAMFUSION_ADDR")
	if addr == "" {
		addr = "http://127.0.0.1:8085"
	}
	client := gosdk.NewClient(addr)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	input := []any{-4.0, 1.0, 2.0, 3.0}
	fmt.Println("Submitting run to", addr)
	run, err := client.CreateRun(ctx, "keep-positive-doubled", input)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Run %s status: %s, result: %v\n", run.ID, run.Status, run.Result)

	fmt.Println("Fetching run events...")
	events, err := client.StreamRunEvents(ctx, run.ID)
	if err != nil {
		panic(err)
	}
	for _, evt := range events {
		fmt.Printf("[%s] seq=%d\n", evt.Event, evt.Seq)
	}
}
