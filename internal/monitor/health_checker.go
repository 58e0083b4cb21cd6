package monitor

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"jordanella.com/autoclicker-go/internal/cv"
	"jordanella.com/autoclicker-go/internal/logging"
)

// Check probes one external capability. Detail is shown when it passes.
type Check struct {
	Name     string
	Required bool
	Run      func(ctx context.Context) (detail string, err error)
}

// CheckResult is the outcome of a single Check
type CheckResult struct {
	Name     string
	Required bool
	Detail   string
	Err      error
	Duration time.Duration
}

func (r CheckResult) OK() bool {
	return r.Err == nil
}

// HealthChecker runs preflight checks before a scan loop starts
type HealthChecker struct {
	checks  []Check
	timeout time.Duration
	logger  *logging.Logger
}

// NewHealthChecker creates a checker with a 5 second per-check timeout
func NewHealthChecker(logger *logging.Logger) *HealthChecker {
	if logger == nil {
		logger = logging.NewLogger("health")
	}
	return &HealthChecker{
		timeout: 5 * time.Second,
		logger:  logger,
	}
}

// WithTimeout sets the per-check timeout
func (hc *HealthChecker) WithTimeout(timeout time.Duration) *HealthChecker {
	hc.timeout = timeout
	return hc
}

// Add registers a check; checks run in registration order
func (hc *HealthChecker) Add(check Check) *HealthChecker {
	hc.checks = append(hc.checks, check)
	return hc
}

// Checks returns the registered checks
func (hc *HealthChecker) Checks() []Check {
	return append([]Check(nil), hc.checks...)
}

// Run performs every check. A cancelled ctx fails the remaining checks.
func (hc *HealthChecker) Run(ctx context.Context) []CheckResult {
	results := make([]CheckResult, 0, len(hc.checks))

	for _, check := range hc.checks {
		checkCtx, cancel := context.WithTimeout(ctx, hc.timeout)
		start := time.Now()
		detail, err := check.Run(checkCtx)
		if err == nil && checkCtx.Err() != nil {
			err = checkCtx.Err()
		}
		cancel()

		result := CheckResult{
			Name:     check.Name,
			Required: check.Required,
			Detail:   detail,
			Err:      err,
			Duration: time.Since(start),
		}
		results = append(results, result)

		if err != nil {
			hc.logger.DebugWithContext("Health check failed", map[string]interface{}{
				"check":    check.Name,
				"required": check.Required,
				"error":    err.Error(),
			})
		}
	}

	return results
}

// Healthy reports whether every required check passed
func Healthy(results []CheckResult) bool {
	for _, r := range results {
		if r.Required && !r.OK() {
			return false
		}
	}
	return true
}

// CommandCheck runs command with args and reports the first line of its output
func CommandCheck(name string, required bool, command string, args ...string) Check {
	return Check{
		Name:     name,
		Required: required,
		Run: func(ctx context.Context) (string, error) {
			output, err := exec.CommandContext(ctx, command, args...).CombinedOutput()
			if err != nil {
				return "", fmt.Errorf("%s: %w", command, err)
			}
			return firstLine(output), nil
		},
	}
}

// PathCheck reports the resolved path of an executable located by find
func PathCheck(name string, required bool, find func() (string, error)) Check {
	return Check{
		Name:     name,
		Required: required,
		Run: func(context.Context) (string, error) {
			return find()
		},
	}
}

// CaptureCheck grabs one frame and reports its size and capture method
func CaptureCheck(capturer cv.Capturer) Check {
	return Check{
		Name:     "screen capture",
		Required: true,
		Run: func(context.Context) (string, error) {
			frame, err := capturer.CaptureFrame()
			if err != nil {
				return "", err
			}
			b := frame.Bounds()
			return fmt.Sprintf("%dx%d via %s", b.Dx(), b.Dy(), capturer.Name()), nil
		},
	}
}

func firstLine(output []byte) string {
	scanner := bufio.NewScanner(bytes.NewReader(output))
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}
