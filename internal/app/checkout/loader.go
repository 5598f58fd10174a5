package checkout

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"gatherlocal/internal/pkg/logx"
)

// SDKLoader makes the payment provider's SDK available.
type SDKLoader interface {
	Load(ctx context.Context) error
}

// ScriptLoader checks that the provider checkout script can be fetched. The attached
// UI injects the same URL; a reachable, non-empty script is what "loaded" means here.
type ScriptLoader struct {
	URL    string
	Client *http.Client
}

// NewScriptLoader returns a loader for url with a bounded request time.
func NewScriptLoader(url string) *ScriptLoader {
	return &ScriptLoader{
		URL:    url,
		Client: &http.Client{Timeout: 15 * time.Second, Transport: &logx.Transport{}},
	}
}

// Load implements SDKLoader.
func (l *ScriptLoader) Load(ctx context.Context) error {
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return err
	}

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch payment script: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return fmt.Errorf("fetch payment script: status %d", res.StatusCode)
	}

	n, err := io.Copy(io.Discard, io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("read payment script: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("payment script is empty")
	}
	return nil
}
