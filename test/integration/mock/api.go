package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// ResendApi stands in for the Resend HTTP API. Responses are scripted per call
// index; unscripted calls succeed with a generated message id.
type ResendApi struct {
	mu        sync.Mutex
	server    *httptest.Server
	requests  []map[string]any
	headers   []http.Header
	scripted  map[int]scriptedResponse
	failUntil int
	failWith  scriptedResponse
}

type scriptedResponse struct {
	status int
	body   map[string]any
}

func NewResendApi() *ResendApi {
	return &ResendApi{scripted: map[int]scriptedResponse{}}
}

func (a *ResendApi) Start() {
	a.server = httptest.NewServer(http.HandlerFunc(a.handle))
}

func (a *ResendApi) Close() {
	if a.server != nil {
		a.server.Close()
	}
}

func (a *ResendApi) GetUrl() string {
	return a.server.URL
}

func (a *ResendApi) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var request map[string]any
	_ = json.Unmarshal(body, &request)
	if request == nil {
		request = map[string]any{}
	}

	a.mu.Lock()
	index := len(a.requests)
	a.requests = append(a.requests, request)
	a.headers = append(a.headers, r.Header.Clone())
	resp, ok := a.scripted[index]
	if !ok && index < a.failUntil {
		resp, ok = a.failWith, true
	}
	a.mu.Unlock()

	if !ok {
		resp = scriptedResponse{status: http.StatusOK, body: map[string]any{"id": "re_" + strconv.Itoa(index+1)}}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.status)
	raw, _ := json.Marshal(resp.body)
	_, _ = w.Write(raw)
}

// SetResponse scripts the response for the call at index (zero based).
func (a *ResendApi) SetResponse(index, status int, body map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scripted[index] = scriptedResponse{status: status, body: body}
}

// FailNext makes the next n calls answer with status.
func (a *ResendApi) FailNext(n, status int, body map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failUntil = len(a.requests) + n
	a.failWith = scriptedResponse{status: status, body: body}
}

func (a *ResendApi) RequestCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *ResendApi) GetRequestBody(index int) map[string]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.requests) {
		return nil
	}
	return a.requests[index]
}

func (a *ResendApi) GetRequestHeaders(index int) http.Header {
	a.mu.Lock()
	defer a.mu.Unlock()
	if index < 0 || index >= len(a.headers) {
		return nil
	}
	return a.headers[index]
}
