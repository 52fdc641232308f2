package agent

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hupe1980/agentrelay/core"
)

// RemoteAgentOptions configures a RemoteAgent instance.
type RemoteAgentOptions struct {
	// Description overrides the generated descriptor description.
	Description string
	// AuthToken, when set, is sent as a bearer token with every request.
	AuthToken string
	// HTTPClient overrides the default client (30s timeout).
	HTTPClient *http.Client
	// FragmentBufferSize sizes the streaming fragment channel.
	FragmentBufferSize int
}

// RemoteAgent invokes an agent served over HTTP by another relay instance.
// It speaks the relay wire format: POST {base}/chat for synchronous calls
// and POST {base}/chat/stream for server-sent-event streams.
type RemoteAgent struct {
	BaseAgent
	baseURL string
	token   string
	client  *http.Client
	bufSize int
}

// NewRemoteAgent constructs a RemoteAgent targeting the given base URL
// (scheme and host, no trailing slash required).
func NewRemoteAgent(name, baseURL string, optFns ...func(o *RemoteAgentOptions)) *RemoteAgent {
	opts := RemoteAgentOptions{
		FragmentBufferSize: 32,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	a := &RemoteAgent{
		BaseAgent: NewBaseAgent(name, "remote"),
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     opts.AuthToken,
		client:    client,
		bufSize:   opts.FragmentBufferSize,
	}
	if opts.Description != "" {
		a.SetDescription(opts.Description)
	}

	return a
}

type remoteChatRequest struct {
	Message string `json:"message"`
}

type remoteChatResponse struct {
	Response string `json:"response"`
}

func (a *RemoteAgent) newRequest(ctx context.Context, path, message string) (*http.Request, error) {
	body, err := json.Marshal(remoteChatRequest{Message: message})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	return req, nil
}

// Invoke implements core.Agent.
func (a *RemoteAgent) Invoke(ctx context.Context, message, _ string) (string, error) {
	req, err := a.newRequest(ctx, "/chat", message)
	if err != nil {
		return "", &core.InvocationError{Agent: a.Name(), Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &core.InvocationError{Agent: a.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", &core.InvocationError{
			Agent: a.Name(),
			Err:   fmt.Errorf("remote returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var chatResp remoteChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &core.InvocationError{Agent: a.Name(), Err: fmt.Errorf("decode response: %w", err)}
	}

	return chatResp.Response, nil
}

// InvokeStream implements core.Agent. The SSE response is decoded line by
// line; each "data:" payload becomes one fragment. Transport failures after
// the stream opens become the error-marker fragment.
func (a *RemoteAgent) InvokeStream(ctx context.Context, message, _ string) (<-chan string, error) {
	req, err := a.newRequest(ctx, "/chat/stream", message)
	if err != nil {
		return nil, &core.InvocationError{Agent: a.Name(), Err: err}
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, &core.InvocationError{Agent: a.Name(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, &core.InvocationError{
			Agent: a.Name(),
			Err:   fmt.Errorf("remote returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	out := make(chan string, a.bufSize)

	go func() {
		defer close(out)
		defer resp.Body.Close()

		forward := func(text string) bool {
			select {
			case <-ctx.Done():
				return false
			case out <- text:
				return true
			}
		}

		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			fragment := strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " ")
			if !forward(fragment) {
				return
			}
		}

		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			forward(errorMarker(a.Name(), err))
		}
	}()

	return out, nil
}
