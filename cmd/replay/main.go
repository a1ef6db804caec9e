// Command replay fires synthetic stock events at a running stocksync
// instance. Handy for exercising the pipeline against a dry-run
// configuration or for load-checking the webhook surface.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

func main() {
	target := flag.String("target", "http://localhost:8080", "base URL of the stocksync server")
	event := flag.String("event", "stockitem.quantityupdated", "event name to send")
	itemID := flag.Int64("item", 1, "stock item id")
	count := flag.Int("count", 50, "number of events to send")
	concurrency := flag.Int("concurrency", 10, "concurrent senders")
	flag.Parse()

	payload, err := json.Marshal(map[string]any{
		"event": *event,
		"id":    *itemID,
		"model": "StockItem",
	})
	if err != nil {
		log.Fatalf("encode payload: %v", err)
	}

	var accepted, failed atomic.Int32
	sem := make(chan struct{}, *concurrency)
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < *count; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()

			resp, err := http.Post(*target+"/api/v1/events", "application/json", bytes.NewReader(payload))
			if err != nil {
				failed.Add(1)
				return
			}
			resp.Body.Close()
			if resp.StatusCode == http.StatusAccepted {
				accepted.Add(1)
			} else {
				failed.Add(1)
			}
		}()
	}
	wg.Wait()

	fmt.Printf("sent %d events in %s: accepted=%d failed=%d\n",
		*count, time.Since(start).Round(time.Millisecond), accepted.Load(), failed.Load())
}
