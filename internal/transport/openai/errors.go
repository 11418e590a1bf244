package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/resumeqa/resumeqa/internal/domain"
)

// classifyError maps a go-openai error onto the domain taxonomy. Quota and
// rate-limit responses (HTTP 429, RESOURCE_EXHAUSTED, "quota") become
// ErrRateLimited; everything else is ErrUpstream. The provider message is kept.
func classifyError(op string, err error) error {
	status, detail := describe(err)

	kind := domain.ErrUpstream
	if isRateLimit(status, detail) {
		kind = domain.ErrRateLimited
	}
	if status > 0 {
		return fmt.Errorf("%s: %w: HTTP %d: %s", op, kind, status, detail)
	}
	return fmt.Errorf("%s: %w: %s", op, kind, detail)
}

func describe(err error) (int, string) {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if s, ok := apiErr.Code.(string); ok && s != "" {
			msg = s + ": " + msg
		}
		return apiErr.HTTPStatusCode, msg
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if d := extractDetail(reqErr.Body); d != "" {
			return reqErr.HTTPStatusCode, d
		}
		return reqErr.HTTPStatusCode, strings.TrimSpace(string(reqErr.Body))
	}

	return 0, err.Error()
}

func isRateLimit(status int, detail string) bool {
	return status == http.StatusTooManyRequests ||
		strings.Contains(detail, "429") ||
		strings.Contains(detail, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(detail), "quota")
}

// extractDetail reads the message of a JSON error body. Gemini wraps errors
// in a list, other providers use "detail" or "error.message".
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
		Error  struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.Detail != "":
			return parsed.Detail
		case parsed.Error.Message != "" && parsed.Error.Status != "":
			return parsed.Error.Status + ": " + parsed.Error.Message
		case parsed.Error.Message != "":
			return parsed.Error.Message
		}
	}

	var list []struct {
		Error struct {
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	if json.Unmarshal(body, &list) == nil && len(list) > 0 && list[0].Error.Message != "" {
		return list[0].Error.Status + ": " + list[0].Error.Message
	}
	return ""
}
