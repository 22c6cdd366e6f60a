package chat

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/h2non/gock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	upstream = "https://chat.example.test"
	path     = "/api/v1/chat/completions"
)

func newTestClient(t *testing.T, key string) *Client {
	t.Helper()
	hc := &http.Client{}
	gock.InterceptClient(hc)
	t.Cleanup(func() {
		gock.RestoreClient(hc)
		gock.Off()
	})
	return New(upstream+path, "test/model", key,
		WithHTTPClient(hc), WithReferer("http://localhost:3000"), WithTitle("SlideBoard"))
}

func TestComplete(t *testing.T) {
	c := newTestClient(t, "sk-test")

	gock.New(upstream).
		Post(path).
		MatchHeader("Authorization", "^Bearer sk-test$").
		MatchHeader("X-Title", "SlideBoard").
		MatchHeader("HTTP-Referer", "localhost:3000").
		JSON(map[string]any{
			"model":    "test/model",
			"messages": []map[string]string{{"role": "user", "content": "2+2?"}},
			"stream":   false,
		}).
		Reply(200).
		JSON(map[string]any{
			"id":      "gen-1",
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": "4"}}},
		})

	reply, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "2+2?"}})
	require.NoError(t, err)
	assert.Equal(t, "4", reply)
	assert.True(t, gock.IsDone())
}

func TestComplete_NoChoices(t *testing.T) {
	c := newTestClient(t, "sk-test")
	gock.New(upstream).Post(path).Reply(200).JSON(map[string]any{"choices": []any{}})

	reply, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestComplete_UpstreamError(t *testing.T) {
	c := newTestClient(t, "sk-test")
	gock.New(upstream).Post(path).Reply(429).BodyString("rate limited")

	_, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 429, apiErr.Status)
	assert.Equal(t, "rate limited", apiErr.Body)
	assert.Equal(t, "chat upstream error: 429 - rate limited", apiErr.Error())
}

func TestClient_NoKey(t *testing.T) {
	c := newTestClient(t, "")
	assert.False(t, c.HasKey())

	_, err := c.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hi"}})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestStream(t *testing.T) {
	c := newTestClient(t, "sk-test")
	body := strings.Join([]string{
		`: keep-alive`,
		`data: {"choices":[{"delta":{"content":"Hel"}}]}`,
		``,
		`data: {"choices":[{"delta":{"content":"lo"}}]}`,
		`data: not json`,
		`data: {"choices":[{"delta":{}}]}`,
		`data: [DONE]`,
		``,
	}, "\n")
	gock.New(upstream).Post(path).
		JSON(map[string]any{
			"model":    "test/model",
			"messages": []map[string]string{{"role": "user", "content": "greet"}},
			"stream":   true,
		}).
		Reply(200).
		SetHeader("Content-Type", "text/event-stream").
		BodyString(body)

	var chunks []string
	reply, err := c.Stream(context.Background(), []Message{{Role: RoleUser, Content: "greet"}}, func(s string) {
		chunks = append(chunks, s)
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)
	assert.Equal(t, []string{"Hel", "lo"}, chunks)
}

func TestValidateKey(t *testing.T) {
	c := newTestClient(t, "sk-good")
	gock.New(upstream).Post(path).
		JSON(map[string]any{
			"model":      "test/model",
			"messages":   []map[string]string{{"role": "user", "content": "Hi"}},
			"stream":     false,
			"max_tokens": 1,
		}).
		Reply(200).JSON(map[string]any{"choices": []any{}})
	assert.True(t, c.ValidateKey(context.Background()))

	gock.New(upstream).Post(path).Reply(401).BodyString("bad key")
	assert.False(t, c.ValidateKey(context.Background()))
}

func TestParseStream_NilCallback(t *testing.T) {
	reply, err := ParseStream(strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, "x", reply)
}

func TestSession(t *testing.T) {
	c := newTestClient(t, "sk-test")
	s := NewSession(c)

	gock.New(upstream).Post(path).
		AddMatcher(func(req *http.Request, _ *gock.Request) (bool, error) {
			return req.ContentLength > 0, nil
		}).
		Reply(200).
		BodyString("data: {\"choices\":[{\"delta\":{\"content\":\"Newton\"}}]}\n\ndata: [DONE]\n")

	reply, err := s.Send(context.Background(), "  who?  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "Newton", reply)
	assert.Equal(t, []Message{
		{Role: RoleUser, Content: "who?"},
		{Role: RoleAssistant, Content: "Newton"},
	}, s.History())

	gock.New(upstream).Post(path).Reply(500).BodyString("down")
	_, err = s.Send(context.Background(), "again", nil)
	require.Error(t, err)
	assert.Len(t, s.History(), 2, "failed turn is not recorded")

	reply, err = s.Send(context.Background(), "   ", nil)
	require.NoError(t, err)
	assert.Empty(t, reply)

	s.Clear()
	assert.Empty(t, s.History())
}
