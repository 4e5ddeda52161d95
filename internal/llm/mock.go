package llm

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/mohitxagarwal-gif/card-carry-recommend-sub001/internal/model"
)

var errNoScript = errors.New("no scripted response")

// MockInferrer is a scripted inferrer for tests and dry runs.
type MockInferrer struct {
	responses map[string]model.MerchantInference
	fallback  *model.MerchantInference
	err       error
	calls     map[string]int
	mu        sync.Mutex
}

// NewMockInferrer creates an inferrer with no scripted answers.
func NewMockInferrer() *MockInferrer {
	return &MockInferrer{
		responses: make(map[string]model.MerchantInference),
		calls:     make(map[string]int),
	}
}

// SetResponse scripts the answer for a merchant name (case-insensitive).
func (m *MockInferrer) SetResponse(merchant string, inf model.MerchantInference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[mockKey(merchant)] = inf
}

// SetDefault scripts the answer for any unscripted merchant.
func (m *MockInferrer) SetDefault(inf model.MerchantInference) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &inf
}

// SetError makes every call fail with err.
func (m *MockInferrer) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// InferMerchant implements the inferrer contract.
func (m *MockInferrer) InferMerchant(ctx context.Context, merchantName string) (model.MerchantInference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := mockKey(merchantName)
	m.calls[key]++

	if err := ctx.Err(); err != nil {
		return model.MerchantInference{}, err
	}
	if m.err != nil {
		return model.MerchantInference{}, m.err
	}
	if inf, ok := m.responses[key]; ok {
		return validateInference(inf)
	}
	if m.fallback != nil {
		return validateInference(*m.fallback)
	}
	return model.MerchantInference{}, malformed(errNoScript)
}

// Calls returns how many times merchant was inferred.
func (m *MockInferrer) Calls(merchant string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[mockKey(merchant)]
}

// TotalCalls returns the number of inferences across all merchants.
func (m *MockInferrer) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func mockKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
