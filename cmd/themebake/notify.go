package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var notifyURLs []string

var notifyClient = &http.Client{Timeout: 10 * time.Second}

// notifyServers tells each --notify server that ids changed, so it drops its
// bakes and announces the change to its peers. Every server is tried.
func notifyServers(ctx context.Context, cmd *cobra.Command, ids ...int64) error {
	if len(notifyURLs) == 0 {
		return nil
	}

	payload, err := json.Marshal(map[string][]int64{"theme_ids": ids})
	if err != nil {
		return err
	}

	var errs []error
	for _, base := range notifyURLs {
		url := strings.TrimRight(base, "/") + "/api/v1/invalidations"
		if err := postInvalidation(ctx, url, payload); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", base, err))
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Notified %s\n", base)
	}
	return errors.Join(errs...)
}

func postInvalidation(ctx context.Context, url string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "themebake-cli/"+version)

	resp, err := notifyClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}
