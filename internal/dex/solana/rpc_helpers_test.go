package solana

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// rpcHandler returns the JSON-RPC result for one call, or an *rpcFault to emit an error object.
type rpcHandler func(params json.RawMessage) any

type rpcFault struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type fakeRPC struct {
	*httptest.Server
	mu    sync.Mutex
	calls map[string]int
}

func (f *fakeRPC) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func newFakeRPC(t *testing.T, handlers map[string]rpcHandler) *fakeRPC {
	t.Helper()
	f := &fakeRPC{calls: make(map[string]int)}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode rpc request: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.calls[req.Method]++
		f.mu.Unlock()

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		h, ok := handlers[req.Method]
		if !ok {
			resp["error"] = rpcFault{Code: -32601, Message: "method not found: " + req.Method}
		} else if result := h(req.Params); result != nil {
			if fault, isFault := result.(*rpcFault); isFault {
				resp["error"] = fault
			} else {
				resp["result"] = result
			}
		} else {
			resp["result"] = nil
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(f.Close)
	return f
}

func withContext(value any) map[string]any {
	return map[string]any{"context": map[string]any{"slot": 1}, "value": value}
}
