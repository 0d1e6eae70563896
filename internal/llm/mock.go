package llm

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a scripted provider for tests. Each call returns the next
// queued response; exhausting the script is an error.
type Mock struct {
	mu        sync.Mutex
	responses []Response
	errs      []error
	calls     []Request
}

// NewMock creates a mock provider with no scripted responses.
func NewMock() *Mock { return &Mock{} }

// Queue appends a successful response to the script.
func (m *Mock) Queue(text string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, Response{Text: text, Model: "mock"})
	m.errs = append(m.errs, nil)
	return m
}

// QueueErr appends a failing call to the script.
func (m *Mock) QueueErr(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, Response{})
	m.errs = append(m.errs, err)
	return m
}

// Calls returns the requests seen so far.
func (m *Mock) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}

// Name implements Provider.
func (m *Mock) Name() string { return "mock" }

// Complete implements Provider.
func (m *Mock) Complete(_ context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	idx := len(m.calls) - 1
	if idx >= len(m.responses) {
		return Response{}, fmt.Errorf("mock provider: unexpected call %d", idx+1)
	}
	if err := m.errs[idx]; err != nil {
		return Response{}, err
	}
	return m.responses[idx], nil
}
