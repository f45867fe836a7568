package llm

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	goopenai "github.com/sashabaranov/go-openai"
)

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Setenv("STUDYRAG_TEST_LLM_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "STUDYRAG_TEST_LLM_KEY"})
	assert.Error(t, err)

	t.Setenv("STUDYRAG_TEST_LLM_KEY", "sk-test")
	c, err := NewClient(Config{APIKeyEnv: "STUDYRAG_TEST_LLM_KEY", BaseURL: "http://localhost:1/v1"})
	assert.NoError(t, err)
	assert.NotNil(t, c)
}

func TestRetryDelayGrowsAndCaps(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, retryDelay(0))
	assert.Equal(t, time.Second, retryDelay(1))
	assert.Less(t, retryDelay(2), retryDelay(3))
	assert.Equal(t, 8*time.Second, retryDelay(10))
	assert.Equal(t, 500*time.Millisecond, retryDelay(-3))
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&goopenai.APIError{HTTPStatusCode: 429}))
	assert.True(t, retryable(&goopenai.APIError{HTTPStatusCode: 503}))
	assert.False(t, retryable(&goopenai.APIError{HTTPStatusCode: 400}))
	assert.False(t, retryable(&goopenai.APIError{HTTPStatusCode: 401}))
	assert.True(t, retryable(errors.New("connection refused")))
}
