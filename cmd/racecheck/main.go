// racecheck drives many concurrent checkouts for one seat against a running
// server and reports how the commits were decided.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"showtime/internal/shared/config"
	"showtime/internal/shared/constants"
	"showtime/internal/shared/middleware"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type envelope struct {
	StatusCode int             `json:"status_code"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Errors     json.RawMessage `json:"errors"`
}

type ClientResult struct {
	Client       int           `json:"client"`
	Stage        string        `json:"stage"`
	StatusCode   int           `json:"status_code"`
	ResponseTime time.Duration `json:"response_time"`
	Error        string        `json:"error,omitempty"`
}

type client struct {
	baseURL string
	token   string
	http    *http.Client
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080/api/v1", "API base URL")
	eventID := flag.Int("event", 1, "event to book")
	seatID := flag.String("seat", "A1", "seat every client competes for")
	clients := flag.Int("clients", 20, "number of concurrent checkouts")
	method := flag.String("method", "creditcard", "payment method")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	fmt.Printf("Racing %d checkouts for seat %s of event %d\n", *clients, *seatID, *eventID)
	fmt.Println("===================================")

	prepared := make([]*client, *clients)
	checkoutIDs := make([]string, *clients)
	for i := range prepared {
		token, err := issueToken(cfg.JWT.Secret, fmt.Sprintf("race-%d", i))
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		prepared[i] = &client{baseURL: *baseURL, token: token, http: &http.Client{Timeout: 30 * time.Second}}

		id, err := prepared[i].prepareCheckout(*eventID, *seatID, *method)
		if err != nil {
			log.Fatalf("Client %d could not reach payment: %v", i, err)
		}
		checkoutIDs[i] = id
	}
	fmt.Printf("All %d checkouts are awaiting payment\n", *clients)

	results := make([]ClientResult, *clients)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := range prepared {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			results[i] = prepared[i].confirm(i, checkoutIDs[i])
		}(i)
	}
	close(start)
	wg.Wait()

	report(results)
	checkAvailabilityCache(cfg, *baseURL, *eventID)
}

func (c *client) prepareCheckout(eventID int, seatID, method string) (string, error) {
	var session struct {
		ID string `json:"id"`
	}
	if err := c.call(http.MethodPost, "/sessions", map[string]int{"event_id": eventID}, &session); err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	if err := c.call(http.MethodPost, "/sessions/"+session.ID+"/seats/"+seatID+"/toggle", nil, nil); err != nil {
		return "", fmt.Errorf("toggle seat: %w", err)
	}

	var checkout struct {
		ID string `json:"id"`
	}
	if err := c.call(http.MethodPost, "/checkouts", map[string]string{"session_id": session.ID}, &checkout); err != nil {
		return "", fmt.Errorf("start checkout: %w", err)
	}
	if err := c.call(http.MethodPost, "/checkouts/"+checkout.ID+"/review", nil, nil); err != nil {
		return "", fmt.Errorf("review: %w", err)
	}
	if err := c.call(http.MethodPost, "/checkouts/"+checkout.ID+"/payment", map[string]string{"payment_method": method}, nil); err != nil {
		return "", fmt.Errorf("payment: %w", err)
	}
	return checkout.ID, nil
}

func (c *client) confirm(index int, checkoutID string) ClientResult {
	start := time.Now()
	status, body, err := c.do(http.MethodPost, "/checkouts/"+checkoutID+"/confirm", nil)
	result := ClientResult{Client: index, Stage: "confirm", StatusCode: status, ResponseTime: time.Since(start)}
	if err != nil {
		result.Error = err.Error()
	} else if status != http.StatusCreated {
		result.Error = body.Message
	}
	return result
}

func (c *client) call(method, path string, payload, dest interface{}) error {
	status, body, err := c.do(method, path, payload)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("HTTP %d: %s %s", status, body.Message, string(body.Errors))
	}
	if dest != nil {
		return json.Unmarshal(body.Data, dest)
	}
	return nil
}

func (c *client) do(method, path string, payload interface{}) (int, *envelope, error) {
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, &body, nil
}

func report(results []ClientResult) {
	fmt.Println("\nCOMMIT REPORT")
	fmt.Println("=============")

	counts := make(map[int]int)
	var slowest time.Duration
	for _, r := range results {
		counts[r.StatusCode]++
		if r.ResponseTime > slowest {
			slowest = r.ResponseTime
		}
	}

	fmt.Printf("Committed (201): %d\n", counts[http.StatusCreated])
	fmt.Printf("Conflicts (409): %d\n", counts[http.StatusConflict])
	for code, n := range counts {
		if code != http.StatusCreated && code != http.StatusConflict {
			fmt.Printf("Other (%d): %d\n", code, n)
		}
	}
	fmt.Printf("Slowest confirm: %v\n", slowest)

	if counts[http.StatusCreated] == 1 {
		fmt.Println("Exactly one checkout won the seat")
	} else {
		fmt.Printf("Expected exactly one winner, got %d\n", counts[http.StatusCreated])
	}

	detail, _ := json.MarshalIndent(results, "", "  ")
	fmt.Println(string(detail))
}

// checkAvailabilityCache reads availability twice and reports whether the
// merged view landed in Redis.
func checkAvailabilityCache(cfg *config.Config, baseURL string, eventID int) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		fmt.Printf("\nRedis unavailable, skipping cache check: %v\n", err)
		return
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}
	url := fmt.Sprintf("%s/events/%d/availability", baseURL, eventID)
	for _, label := range []string{"first read", "second read"} {
		start := time.Now()
		resp, err := httpClient.Get(url)
		if err != nil {
			fmt.Printf("%s failed: %v\n", label, err)
			return
		}
		resp.Body.Close()
		fmt.Printf("Availability %s: HTTP %d in %v\n", label, resp.StatusCode, time.Since(start))
	}

	generation, err := rdb.Get(ctx, constants.AvailabilityGenerationKey(eventID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		fmt.Printf("Generation lookup failed: %v\n", err)
		return
	}
	fmt.Printf("Availability generation: %d\n", generation)

	exists, err := rdb.Exists(ctx, constants.EffectiveAvailabilityCacheKey(eventID, generation)).Result()
	if err != nil {
		fmt.Printf("Cache lookup failed: %v\n", err)
		return
	}
	fmt.Printf("Effective availability cached: %t\n", exists == 1)
}

func issueToken(secret, userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    middleware.RoleUser,
		"type":    "access",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
