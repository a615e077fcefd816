package llm

import "context"

// ExtractCall records one Extract invocation for assertions.
type ExtractCall struct {
	LastQuestion string
	Answer       string
	Prior        map[string]string
}

// MockClient is a configurable extractor for testing. Set the response
// fields to control what Extract returns; Responses, when non-empty, is
// consumed one entry per call before falling back to ExtractResponse.
type MockClient struct {
	ExtractResponse map[string]string
	ExtractError    error
	Responses       []map[string]string

	// Call tracking for assertions
	ExtractCalls []ExtractCall
}

func NewMockClient() *MockClient {
	return &MockClient{ExtractResponse: map[string]string{}}
}

func (c *MockClient) Extract(ctx context.Context, lastQuestion, answer string, prior map[string]string) (map[string]string, error) {
	c.ExtractCalls = append(c.ExtractCalls, ExtractCall{
		LastQuestion: lastQuestion,
		Answer:       answer,
		Prior:        prior,
	})
	if c.ExtractError != nil {
		return nil, c.ExtractError
	}
	if len(c.Responses) > 0 {
		next := c.Responses[0]
		c.Responses = c.Responses[1:]
		return next, nil
	}
	return c.ExtractResponse, nil
}

// Reset clears recorded calls and responses.
func (c *MockClient) Reset() {
	c.ExtractResponse = map[string]string{}
	c.ExtractError = nil
	c.Responses = nil
	c.ExtractCalls = nil
}
