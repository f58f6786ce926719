// record-seeder publishes synthetic phone-record events to the feed for
// local testing and load generation.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/nats-io/nats.go"
)

var (
	natsURL     = flag.String("nats-url", "nats://localhost:4222", "NATS server URL")
	count       = flag.Int("count", 100, "Number of events to publish")
	interval    = flag.Duration("interval", 50*time.Millisecond, "Interval between events")
	updateRatio = flag.Float64("update-ratio", 0.2, "Fraction of events published as post-processing updates")
	dupRatio    = flag.Float64("dup-ratio", 0.1, "Fraction of creation events that reuse an earlier number")
)

var phoneTypes = []string{"mobile", "landline", "tollfree", "voip"}

func main() {
	flag.Parse()

	gofakeit.Seed(time.Now().UnixNano())

	nc, err := nats.Connect(*natsURL, nats.Name("record-seeder"))
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	log.Printf("Starting record seeder:")
	log.Printf("  NATS URL: %s", *natsURL)
	log.Printf("  Event count: %d", *count)
	log.Printf("  Update ratio: %.2f", *updateRatio)
	log.Printf("  Duplicate ratio: %.2f", *dupRatio)

	published := 0
	var seen []string

	for i := 0; i < *count; i++ {
		number := fakeE164()
		if len(seen) > 0 && rand.Float64() < *dupRatio {
			number = seen[rand.Intn(len(seen))]
		} else {
			seen = append(seen, number)
		}

		subject := "records.created"
		event := map[string]string{
			"e164Number": number,
			"country":    gofakeit.CountryAbr(),
			"state":      gofakeit.StateAbr(),
			"type":       phoneTypes[rand.Intn(len(phoneTypes))],
		}

		if rand.Float64() < *updateRatio {
			subject = "records.postprocessing"
			event["correlationId"] = gofakeit.UUID()
			event["userId"] = gofakeit.Username()
		}

		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal event: %v", err)
			continue
		}

		if err := nc.Publish(subject, data); err != nil {
			log.Printf("Failed to publish to %s: %v", subject, err)
			continue
		}
		published++

		if published%50 == 0 {
			log.Printf("Progress: %d/%d events published", published, *count)
		}

		if *interval > 0 && i < *count-1 {
			time.Sleep(*interval)
		}
	}

	if err := nc.Flush(); err != nil {
		log.Printf("Flush failed: %v", err)
	}

	log.Printf("Seeding complete: %d events published", published)
}

// fakeE164 builds a plus-prefixed number of 10 to 15 digits.
func fakeE164() string {
	digits := 10 + rand.Intn(6)
	n := fmt.Sprintf("%d", 1+rand.Intn(9))
	for len(n) < digits {
		n += fmt.Sprintf("%d", rand.Intn(10))
	}
	return "+" + n
}
