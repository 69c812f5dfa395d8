// Package main provides a load-testing probe for the blog comment WebSocket
// endpoint. It logs in, mints a single-use ticket per connection, joins a
// post room, and emits typing events while counting what comes back.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Metrics tracks the probe results
type Metrics struct {
	ConnectionsAttempted int64
	ConnectionsSuccess   int64
	ConnectionsFailed    int64
	EventsSent           int64
	EventsReceived       int64
	TypingEvents         int64
	CommentEvents        int64
	Errors               int64
}

var metrics Metrics

func main() {
	host := flag.String("host", "localhost:8480", "API server host")
	email := flag.String("email", "editor@example.com", "Login email")
	password := flag.String("password", "password123", "Login password")
	postID := flag.Uint("post", 1, "Post room to join")
	clients := flag.Int("clients", 50, "Number of concurrent clients")
	anonymous := flag.Bool("anonymous", false, "Connect without credentials")
	duration := flag.Duration("duration", 30*time.Second, "Probe duration")
	flag.Parse()

	log.Printf("Starting WebSocket probe")
	log.Printf("Target: %s, post room: %d", *host, *postID)
	log.Printf("Clients: %d (anonymous=%v)", *clients, *anonymous)
	log.Printf("Duration: %v", *duration)

	token := ""
	if !*anonymous {
		var err error
		token, err = login(*host, *email, *password)
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		log.Printf("Logged in successfully")
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup
	stopChan := make(chan struct{})

	for i := 0; i < *clients; i++ {
		wg.Add(1)
		go runClient(*host, token, *postID, i, stopChan, &wg)
		time.Sleep(50 * time.Millisecond) // Stagger connections to stay under the signup/ticket limits
	}

	select {
	case <-time.After(*duration):
		log.Println("Probe duration reached")
	case <-interrupt:
		log.Println("Interrupted by user")
	}

	close(stopChan)
	log.Println("Waiting for clients to disconnect...")
	wg.Wait()

	printMetrics()
}

// envelope matches the API's uniform response shape.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func login(host, email, password string) (string, error) {
	loginURL := fmt.Sprintf("http://%s/api/auth/login", host)
	payload := map[string]string{
		"email":    email,
		"password": password,
	}
	body, _ := json.Marshal(payload)

	resp, err := http.Post(loginURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	var result struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

func getTicket(host, token string) (string, error) {
	ticketURL := fmt.Sprintf("http://%s/api/ws/ticket", host)
	req, _ := http.NewRequest("POST", ticketURL, nil)
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("ticket issuance failed with status %d", resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return "", err
	}
	var result struct {
		Ticket string `json:"ticket"`
	}
	if err := json.Unmarshal(env.Data, &result); err != nil {
		return "", err
	}
	return result.Ticket, nil
}

func runClient(host, token string, postID uint, id int, stopChan <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	atomic.AddInt64(&metrics.ConnectionsAttempted, 1)

	query := ""
	if token != "" {
		// Each connection burns a fresh single-use ticket.
		ticket, err := getTicket(host, token)
		if err != nil {
			atomic.AddInt64(&metrics.ConnectionsFailed, 1)
			atomic.AddInt64(&metrics.Errors, 1)
			return
		}
		query = "ticket=" + ticket
	}

	u := url.URL{Scheme: "ws", Host: host, Path: "/ws", RawQuery: query}

	c, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		atomic.AddInt64(&metrics.ConnectionsFailed, 1)
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}
	if resp != nil && resp.Body != nil {
		defer func() { _ = resp.Body.Close() }()
	}
	defer func() { _ = c.Close() }()

	atomic.AddInt64(&metrics.ConnectionsSuccess, 1)

	go func() {
		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				return
			}
			atomic.AddInt64(&metrics.EventsReceived, 1)

			var event struct {
				Type string `json:"type"`
			}
			if json.Unmarshal(raw, &event) != nil {
				continue
			}
			switch event.Type {
			case "user_typing", "user_stop_typing":
				atomic.AddInt64(&metrics.TypingEvents, 1)
			case "new_comment", "comment_updated", "comment_deleted":
				atomic.AddInt64(&metrics.CommentEvents, 1)
			}
		}
	}()

	if err := sendEvent(c, "join_blog", postID); err != nil {
		atomic.AddInt64(&metrics.Errors, 1)
		return
	}

	typing := false
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stopChan:
			_ = sendEvent(c, "leave_blog", postID)
			_ = c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			// Alternate typing and stop_typing like a hesitant commenter.
			eventType := "typing"
			if typing {
				eventType = "stop_typing"
			}
			typing = !typing
			if err := sendEvent(c, eventType, postID); err != nil {
				atomic.AddInt64(&metrics.Errors, 1)
				return
			}
		}
	}
}

func sendEvent(c *websocket.Conn, eventType string, postID uint) error {
	msg := map[string]interface{}{
		"type":   eventType,
		"postId": postID,
	}
	raw, _ := json.Marshal(msg)
	if err := c.WriteMessage(websocket.TextMessage, raw); err != nil {
		return err
	}
	atomic.AddInt64(&metrics.EventsSent, 1)
	return nil
}

func printMetrics() {
	log.Println("\nProbe Results")
	log.Println("=============")
	log.Printf("Connections Attempted: %d", atomic.LoadInt64(&metrics.ConnectionsAttempted))
	log.Printf("Connections Successful: %d", atomic.LoadInt64(&metrics.ConnectionsSuccess))
	log.Printf("Connections Failed: %d", atomic.LoadInt64(&metrics.ConnectionsFailed))
	log.Printf("Events Sent: %d", atomic.LoadInt64(&metrics.EventsSent))
	log.Printf("Events Received: %d", atomic.LoadInt64(&metrics.EventsReceived))
	log.Printf("Typing Events: %d", atomic.LoadInt64(&metrics.TypingEvents))
	log.Printf("Comment Events: %d", atomic.LoadInt64(&metrics.CommentEvents))
	log.Printf("Total Errors: %d", atomic.LoadInt64(&metrics.Errors))
}
