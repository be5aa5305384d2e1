package samples

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/okian/rchpass/internal/adapters/http/api"
	"github.com/okian/rchpass/pkg/logger"
)

// Default verification settings.
const (
	DefaultTimeout = 10 * time.Second
	DefaultWorkers = 4
	maxBodyBytes   = 32 << 20
)

// VerifyConfig configures Verify.
type VerifyConfig struct {
	BaseURL string
	Timeout time.Duration
	Workers int
}

// Report summarises a verification run.
type Report struct {
	Checked    int
	Mismatched int
	Failures   []string
	// OutOfRange reports whether the first period past the data was
	// rejected with 404.
	OutOfRange bool
}

// OK reports whether every check passed.
func (r Report) OK() bool { return r.Mismatched == 0 && len(r.Failures) == 0 && r.OutOfRange }

// Verify fetches every period of ds from a running server and compares
// the arrays with Expected.
func Verify(ctx context.Context, cfg VerifyConfig, ds Dataset) (Report, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	log := logger.Get().Named("verify")
	client := &http.Client{Timeout: cfg.Timeout}

	steps := ds.Steps()
	periods := make(chan int, cfg.Workers*2)
	var (
		mu  sync.Mutex
		rep Report
		wg  sync.WaitGroup
	)
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range periods {
				err := checkPeriod(ctx, client, cfg.BaseURL, ds, p)
				mu.Lock()
				rep.Checked++
				if err != nil {
					rep.Mismatched++
					rep.Failures = append(rep.Failures, err.Error())
				}
				mu.Unlock()
			}
		}()
	}

feed:
	for p := 0; p < steps; p++ {
		select {
		case <-ctx.Done():
			break feed
		case periods <- p:
		}
	}
	close(periods)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return rep, err
	}

	status, _, err := fetch(ctx, client, cfg.BaseURL, steps)
	if err != nil {
		return rep, err
	}
	rep.OutOfRange = status == http.StatusNotFound
	if !rep.OutOfRange {
		rep.Failures = append(rep.Failures, fmt.Sprintf("period %d: status %d, want 404", steps, status))
	}

	log.Info(ctx, "verification completed",
		logger.Int("checked", rep.Checked),
		logger.Int("mismatched", rep.Mismatched),
		logger.Bool("out_of_range_rejected", rep.OutOfRange),
	)
	return rep, nil
}

func checkPeriod(ctx context.Context, client *http.Client, baseURL string, ds Dataset, p int) error {
	status, got, err := fetch(ctx, client, baseURL, p)
	if err != nil {
		return fmt.Errorf("period %d: %w", p, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("period %d: status %d", p, status)
	}
	want, err := ds.Expected(p)
	if err != nil {
		return err
	}
	if got.Period != p || got.Rows != ds.Desc.Rows || got.Cols != ds.Desc.Cols || len(got.Values) != got.Rows {
		return fmt.Errorf("period %d: got %d %dx%d", p, got.Period, got.Rows, got.Cols)
	}
	for r, row := range got.Values {
		if len(row) != got.Cols {
			return fmt.Errorf("period %d: row %d has %d values", p, r, len(row))
		}
		for c, v := range row {
			if v != want.At(r, c) {
				return fmt.Errorf("period %d: cell %d,%d = %v, want %v", p, r, c, v, want.At(r, c))
			}
		}
	}
	return nil
}

func fetch(ctx context.Context, client *http.Client, baseURL string, p int) (int, api.RechargeResponse, error) {
	var out api.RechargeResponse
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/recharge/"+strconv.Itoa(p), nil)
	if err != nil {
		return 0, out, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, out, fmt.Errorf("get: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return resp.StatusCode, out, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode == http.StatusOK {
		if err := json.Unmarshal(body, &out); err != nil {
			return resp.StatusCode, out, fmt.Errorf("decode body: %w", err)
		}
	}
	return resp.StatusCode, out, nil
}
