package main

import (
	"bufio"
	"encoding/json"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

type envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// send wraps a payload in an event envelope and sends it.
func send(c *websocket.Conn, event string, payload interface{}) error {
	env := envelope{Event: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		env.Payload = raw
	}
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return c.WriteMessage(websocket.TextMessage, data)
}

func main() {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: "localhost:3001", Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			_, message, err := c.ReadMessage()
			if err != nil {
				log.Println("Read error:", err)
				return
			}
			var env envelope
			if err := json.Unmarshal(message, &env); err != nil {
				log.Printf("Received invalid envelope: %s", string(message))
				continue
			}
			log.Printf("<- RECV %s: %s", env.Event, string(env.Payload))
		}
	}()

	log.Println("Commands: create <name> | join <code> <name> | ready | start <code> | assassinate <id> <idx> | coup <id> <idx>")

	// Write loop
	reader := bufio.NewReader(os.Stdin)
	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		default:
			text, _ := reader.ReadString('\n')
			fields := strings.Fields(text)
			if len(fields) == 0 {
				continue
			}

			var err error
			switch fields[0] {
			case "create":
				if len(fields) == 2 {
					err = send(c, "createRoom", map[string]string{"name": fields[1]})
				}
			case "join":
				if len(fields) == 3 {
					err = send(c, "joinRoom", map[string]string{"roomCode": fields[1], "name": fields[2]})
				}
			case "ready":
				err = send(c, "playerReady", nil)
			case "start":
				if len(fields) == 2 {
					err = send(c, "startGame", map[string]string{"roomCode": fields[1]})
				}
			case "assassinate", "coup":
				if len(fields) == 3 {
					idx, convErr := strconv.Atoi(fields[2])
					if convErr != nil {
						log.Println("Bad card index:", fields[2])
						continue
					}
					err = send(c, fields[0], map[string]interface{}{"targetId": fields[1], "cardIndex": idx})
				}
			default:
				log.Println("Unknown command:", fields[0])
				continue
			}

			if err != nil {
				log.Println("Write error:", err)
				return
			}
			log.Printf("-> SENT: %s", fields[0])
		}
	}
}
