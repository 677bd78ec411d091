// Command simulate_chat drives a full demo conversation against a running
// server: create a session, generate a key, exchange messages with both
// ciphers, run an interception simulation, and export the transcript.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"
)

var baseURL = flag.String("base-url", "http://localhost:8080", "server base URL")

func main() {
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}

	// Create a session
	created := call(client, "POST", "/api/v1/sessions", nil)
	code, _ := created["session_code"].(string)
	if code == "" {
		log.Fatal("no session code in create response")
	}
	fmt.Printf("Session created: %s\n", code)

	// Generate a 32-bit quantum key
	keyResp := call(client, "POST", "/api/v1/sessions/"+code+"/key", map[string]interface{}{
		"bits": 32,
	})
	fmt.Printf("Key generated: %v bits from %v, expires in %vs\n",
		keyResp["key_length"], keyResp["source"], keyResp["expires_in"])

	// Alice sends with XOR
	call(client, "POST", "/api/v1/sessions/"+code+"/messages", map[string]interface{}{
		"sender":            "alice",
		"message":           "Hello Bob, the channel is secure.",
		"encryption_method": "xor",
	})
	fmt.Println("Alice sent an XOR-encrypted message")

	// Bob replies with OTP and a 30 second self-destruct timer
	call(client, "POST", "/api/v1/sessions/"+code+"/messages", map[string]interface{}{
		"sender":              "bob",
		"message":             "Reading you loud and clear. This one burns in 30s.",
		"encryption_method":   "otp",
		"is_self_destruct":    true,
		"self_destruct_timer": 30,
	})
	fmt.Println("Bob sent a self-destructing OTP message")

	// Poll the conversation
	msgs := call(client, "GET", "/api/v1/sessions/"+code+"/messages", nil)
	if list, ok := msgs["messages"].([]interface{}); ok {
		fmt.Printf("Conversation has %d visible messages\n", len(list))
	}

	// Simulate an interception attempt
	attack := call(client, "POST", "/api/v1/sessions/"+code+"/attack", nil)
	fmt.Printf("Attack simulation: %v\n", attack["summary"])

	// Session analytics
	analytics := call(client, "GET", "/api/v1/sessions/"+code+"/analytics", nil)
	if report, ok := analytics["analytics"].(map[string]interface{}); ok {
		fmt.Printf("Analytics: %v total messages, %v key refreshes\n",
			report["total_messages"], report["key_refreshes"])
	}

	// Export the decrypted transcript
	export := call(client, "POST", "/api/v1/sessions/"+code+"/export", map[string]interface{}{
		"format": "decrypted",
	})
	fmt.Printf("Exported transcript as %v\n", export["filename"])

	fmt.Println("Simulation complete")
}

func call(client *http.Client, method, path string, body map[string]interface{}) map[string]interface{} {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			log.Fatalf("%s %s: marshal: %v", method, path, err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, *baseURL+path, reader)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		log.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.Fatalf("%s %s: decode: %v", method, path, err)
	}
	if resp.StatusCode >= 400 {
		log.Fatalf("%s %s: HTTP %d: %v", method, path, resp.StatusCode, result["error"])
	}
	return result
}
