package validator

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// validURL rejects strings that are not well-formed, reachable URLs.
type validURL struct {
	client *http.Client
}

func newValidURL(_ map[string]string, env Env) (Validator, error) {
	return &validURL{client: env.httpClient()}, nil
}

func (v *validURL) Name() string { return "valid-url" }

func (v *validURL) Validate(ctx context.Context, key string, value any, _ map[string]any) (*FailDetail, error) {
	s, ok := asString(value)
	if !ok {
		return &FailDetail{Key: key, Value: value, Message: "value is not a string"}, nil
	}
	parsed, err := url.Parse(s)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return &FailDetail{Key: key, Value: value, Message: fmt.Sprintf("value %q is not a valid URL", s)}, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s, nil)
	if err != nil {
		return &FailDetail{Key: key, Value: value, Message: fmt.Sprintf("value %q is not a valid URL", s)}, nil
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return &FailDetail{Key: key, Value: value, Message: fmt.Sprintf("URL %q could not be reached", s)}, nil
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return &FailDetail{
			Key:     key,
			Value:   value,
			Message: fmt.Sprintf("URL %q returned status %d", s, resp.StatusCode),
		}, nil
	}
	return nil, nil
}
