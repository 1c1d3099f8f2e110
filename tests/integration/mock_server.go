package integration

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

// MockVKServer simulates the VK API endpoint: every method lives under
// /method/<name> and replies are scripted per method as a FIFO queue, so a
// test can stage a few failures followed by a success.
type MockVKServer struct {
	server *httptest.Server

	mu       sync.Mutex
	queues   map[string][]scriptedReply
	requests map[string]int
}

type scriptedReply struct {
	status int
	body   string
}

// NewMockVKServer creates a started mock VK API server.
func NewMockVKServer() *MockVKServer {
	m := &MockVKServer{
		queues:   make(map[string][]scriptedReply),
		requests: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/method/", m.handleMethod)
	m.server = httptest.NewServer(mux)

	return m
}

// URL returns the endpoint base the client should be pointed at.
func (m *MockVKServer) URL() string {
	return m.server.URL + "/method/"
}

// Close shuts the server down.
func (m *MockVKServer) Close() {
	m.server.Close()
}

// Enqueue stages the next reply for a method. Replies are served in order;
// the last staged reply repeats once the queue drains.
func (m *MockVKServer) Enqueue(method string, status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queues[method] = append(m.queues[method], scriptedReply{status: status, body: body})
}

// Requests returns how many calls a method has received.
func (m *MockVKServer) Requests(method string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[method]
}

func (m *MockVKServer) handleMethod(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[len("/method/"):]

	m.mu.Lock()
	m.requests[method]++
	queue := m.queues[method]
	var reply scriptedReply
	switch {
	case len(queue) == 0:
		reply = scriptedReply{
			status: http.StatusOK,
			body:   fmt.Sprintf(`{"error": {"error_code": 3, "error_msg": "unknown method %s"}}`, method),
		}
	case len(queue) == 1:
		reply = queue[0]
	default:
		reply = queue[0]
		m.queues[method] = queue[1:]
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.status)
	fmt.Fprint(w, reply.body)
}
