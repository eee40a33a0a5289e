package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	serverAddr    = "localhost:3000"
	username      = "demo"
	password      = "demo"
	numClients    = 5
	resultTimeout = 3 * time.Minute
)

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type TestResult struct {
	ClientNum     int
	RequestID     int64
	FirstPosition int
	Success       bool
	Duration      time.Duration
	CompletedAt   time.Time
	Error         string
}

func main() {
	log.Println("🧪 Multi-Client Queue Test")
	log.Println("==========================")

	// Phase 1: Log in once per client
	log.Printf("\n📋 Phase 1: Logging in %d clients...", numClients)
	tokens := make([]string, 0, numClients)
	for i := 0; i < numClients; i++ {
		token, err := login()
		if err != nil {
			log.Fatalf("Login failed: %v", err)
		}
		tokens = append(tokens, token)
	}
	log.Printf("✅ Obtained %d session tokens", len(tokens))

	// Phase 2: Submit concurrently
	log.Printf("\n📋 Phase 2: Submitting %d concurrent requests...", numClients)
	results := runClients(tokens)

	// Phase 3: Analyze results
	log.Println("\n📋 Phase 3: Analyzing results...")
	analyzeResults(results)

	// Phase 4: Duplicate and cancel behaviour
	log.Println("\n📋 Phase 4: Testing duplicate admission and cancel...")
	token, err := login()
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	testDuplicateAndCancel(token)

	log.Println("\n🎉 Multi-Client Test Complete!")
}

func login() (string, error) {
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post("http://"+serverAddr+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Token   string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if !out.Success {
		return "", fmt.Errorf("login rejected: %s", out.Message)
	}
	return out.Token, nil
}

func connect(token string) (*websocket.Conn, error) {
	ws, _, err := websocket.DefaultDialer.Dial("ws://"+serverAddr+"/ws", nil)
	if err != nil {
		return nil, err
	}
	if err := send(ws, "authenticate", map[string]string{"token": token}); err != nil {
		ws.Close()
		return nil, err
	}
	env, err := read(ws)
	if err != nil {
		ws.Close()
		return nil, err
	}
	if env.Event != "authenticated" {
		ws.Close()
		return nil, fmt.Errorf("authentication failed: %s", env.Data)
	}
	return ws, nil
}

func send(ws *websocket.Conn, event string, data any) error {
	return ws.WriteJSON(map[string]any{"event": event, "data": data})
}

func read(ws *websocket.Conn) (envelope, error) {
	var env envelope
	_ = ws.SetReadDeadline(time.Now().Add(resultTimeout))
	err := ws.ReadJSON(&env)
	return env, err
}

func runClients(tokens []string) []TestResult {
	var results []TestResult
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, token := range tokens {
		wg.Add(1)
		go func(idx int, token string) {
			defer wg.Done()
			result := runClient(idx, token)

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(i, token)
	}

	wg.Wait()
	return results
}

func runClient(idx int, token string) TestResult {
	result := TestResult{ClientNum: idx}
	start := time.Now()

	ws, err := connect(token)
	if err != nil {
		result.Error = err.Error()
		return result
	}
	defer ws.Close()

	code := fmt.Sprintf("func add%d(a, b int) int {\n\treturn a + b\n}", idx)
	if err := send(ws, "submit-request", map[string]string{"code": code}); err != nil {
		result.Error = err.Error()
		return result
	}

	for {
		env, err := read(ws)
		if err != nil {
			result.Error = err.Error()
			return result
		}

		switch env.Event {
		case "queued":
			var q struct {
				ID       int64 `json:"id"`
				Position int   `json:"position"`
			}
			_ = json.Unmarshal(env.Data, &q)
			result.RequestID = q.ID
			result.FirstPosition = q.Position
			log.Printf("  Client %d: queued as request %d at position %d", idx, q.ID, q.Position)
		case "queue-position-update", "processing-started":
			// progress only
		case "suggestion-response":
			result.Success = true
			result.Duration = time.Since(start)
			result.CompletedAt = time.Now()
			return result
		case "error":
			result.Error = string(env.Data)
			result.Duration = time.Since(start)
			result.CompletedAt = time.Now()
			return result
		}
	}
}

func analyzeResults(results []TestResult) {
	sort.Slice(results, func(i, j int) bool {
		return results[i].CompletedAt.Before(results[j].CompletedAt)
	})

	successCount := 0
	var totalDuration time.Duration
	for _, r := range results {
		status := "✅"
		if !r.Success {
			status = "❌"
		} else {
			successCount++
			totalDuration += r.Duration
		}
		log.Printf("%s Client %d: request %d, first position %d, %v %s",
			status, r.ClientNum, r.RequestID, r.FirstPosition, r.Duration, r.Error)
	}

	log.Printf("\n📊 Results: %d/%d succeeded", successCount, len(results))
	if successCount > 0 {
		log.Printf("⏱️  Average duration: %v", totalDuration/time.Duration(successCount))
	}

	inOrder := true
	for i := 1; i < len(results); i++ {
		if results[i].RequestID != 0 && results[i-1].RequestID > results[i].RequestID {
			inOrder = false
		}
	}
	if inOrder {
		log.Println("✅ Requests completed in admission order")
	} else {
		log.Println("⚠️  Requests completed out of admission order")
	}
}

func testDuplicateAndCancel(token string) {
	ws, err := connect(token)
	if err != nil {
		log.Printf("❌ Connect failed: %v", err)
		return
	}
	defer ws.Close()

	for i := 0; i < 2; i++ {
		if err := send(ws, "submit-request", map[string]string{"code": "print('duplicate')"}); err != nil {
			log.Printf("❌ Submit failed: %v", err)
			return
		}
	}

	var queued []json.RawMessage
	for len(queued) < 2 {
		env, err := read(ws)
		if err != nil {
			log.Printf("❌ Read failed: %v", err)
			return
		}
		if env.Event == "queued" {
			queued = append(queued, env.Data)
		}
	}
	log.Printf("  First admission:  %s", queued[0])
	log.Printf("  Second admission: %s", queued[1])

	if err := send(ws, "cancel-request", nil); err != nil {
		log.Printf("❌ Cancel failed: %v", err)
		return
	}
	for {
		env, err := read(ws)
		if err != nil {
			log.Printf("❌ Read failed: %v", err)
			return
		}
		switch env.Event {
		case "request-cancelled":
			log.Println("✅ Request cancelled")
			return
		case "error":
			log.Printf("⚠️  Cancel reported: %s", env.Data)
			return
		}
	}
}
