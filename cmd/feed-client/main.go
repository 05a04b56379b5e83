package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"time"
)

// event is the common envelope of every feed message.
type event struct {
	Type string `json:"type"`
}

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP feed address")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	only := flag.String("type", "", "only print events of this type (rate.update, dataset.reload)")
	flag.Parse()

	for {
		if err := run(*addr, *pretty, *only); err != nil {
			log.Printf("[feed-client] disconnected: %v", err)
		}
		time.Sleep(1 * time.Second) // auto reconnect
	}
}

func run(addr string, pretty bool, only string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[feed-client] connected to %s", addr)

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		line := sc.Bytes()

		var ev event
		if err := json.Unmarshal(line, &ev); err != nil {
			// not JSON? print raw
			fmt.Println(string(line))
			continue
		}
		if only != "" && ev.Type != only {
			continue
		}
		if !pretty {
			fmt.Println(string(line))
			continue
		}

		var obj map[string]any
		_ = json.Unmarshal(line, &obj)
		b, _ := json.MarshalIndent(obj, "", "  ")
		fmt.Println(string(b))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return os.ErrClosed
}
