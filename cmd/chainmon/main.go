package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/robotalks/chain.go/pkg/l0/frame"
	"github.com/robotalks/chain.go/pkg/mqtt"
)

var (
	mqttURL = "mqtt://localhost:1883/chain/"
)

func init() {
	if val := os.Getenv("CHAIN_MQTT_URL"); val != "" {
		mqttURL = val
	}
	flag.StringVar(&mqttURL, "mqtt", mqttURL, "MQTT broker URL.")
}

func main() {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds)

	q, err := mqtt.NewQueueFromURL(mqttURL)
	if err != nil {
		log.Fatalln(err)
	}
	if err := q.Connect(); err != nil {
		log.Fatalln(err)
	}

	q.Sub("+/frames", mqtt.Handler(func(topic string, payload []byte) {
		device := strings.TrimSuffix(topic, "/frames")
		var f frame.Frame
		if err := f.UnmarshalBinary(payload); err != nil {
			log.Printf("%s: bad frame: %v", device, err)
			return
		}
		if err := f.Verify(); err != nil {
			log.Printf("%s: %v: %s", device, err, f.String())
			return
		}
		log.Printf("%s: %s", device, f.String())
	}))
	<-(chan struct{})(nil)
}
