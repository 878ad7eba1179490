package xai

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"steer-sdk/core/pkg/providers"
)

// streamReader reads Server-Sent Events from xAI's streaming API. The
// envelope is identical to OpenAI's (`data: {...}` lines terminated by
// `data: [DONE]`), so this mirrors pkg/providers/openai's streamReader.
type streamReader struct {
	provider *providers.HTTPProvider
	resp     io.ReadCloser
	scanner  *bufio.Scanner
	closed   bool
}

func newStreamReader(ctx context.Context, provider *providers.HTTPProvider, url string, req *ChatRequest, headers map[string]string) (*streamReader, error) {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := provider.DoRequest(ctx, "POST", url, bodyBytes, headers)
	if err != nil {
		return nil, err
	}

	return &streamReader{
		provider: provider,
		resp:     resp.Body,
		scanner:  bufio.NewScanner(resp.Body),
	}, nil
}

// Read reads the next chunk from the stream. Returns nil, io.EOF when
// the stream ends normally.
func (s *streamReader) Read(ctx context.Context) (*providers.StreamChunk, error) {
	if s.closed {
		return nil, io.EOF
	}

	for {
		select {
	case <-ctx.Done():
			return nil, ctx.Err()
	default:
		}

		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, &providers.StreamError{Provider: s.provider.GetName(), Message: "failed to read stream", Cause: err}
			}
			return nil, io.EOF
		}

		line := s.scanner.Text()
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil, io.EOF
		}

		var chunk ChatStreamResponse
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return nil, &providers.ParseError{
				Provider:    s.provider.GetName(),
				RawResponse: data,
				Cause:       fmt.Errorf("failed to parse stream chunk: %w", err),
			}
		}

		return transformStreamChunk(&chunk), nil
	}
}

// Close closes the stream and releases resources.
func (s *streamReader) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.resp.Close()
}
