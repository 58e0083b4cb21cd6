package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/spf13/cobra"

	"jordanella.com/autoclicker-go/internal/clicker"
	"jordanella.com/autoclicker-go/internal/config"
	"jordanella.com/autoclicker-go/internal/cv"
	"jordanella.com/autoclicker-go/internal/input"
	"jordanella.com/autoclicker-go/internal/logging"
	"jordanella.com/autoclicker-go/internal/monitor"
)

var errUnhealthy = errors.New("required checks failed")

func newDoctorCmd(settingsPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the tools the saved settings need are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := config.LoadOrDefault(*settingsPath)
			hc := preflightChecks(s)
			results := hc.Run(cmd.Context())
			writeChecks(cmd.OutOrStdout(), results)
			if !monitor.Healthy(results) {
				return errUnhealthy
			}
			return nil
		},
	}
}

// preflightChecks selects the checks relevant to s
func preflightChecks(s *config.Settings) *monitor.HealthChecker {
	mode := clicker.Mode(s.Mode)
	hc := monitor.NewHealthChecker(logging.NewLogger("health"))

	hc.Add(monitor.PathCheck("xdotool", true, func() (string, error) {
		return input.FindXdotool(s.XdotoolPath)
	}))

	if mode != clicker.ModePattern {
		hc.Add(monitor.CaptureCheck(cv.NewDefaultCapturer(logging.NewLogger("capture"))))
	}

	needsOCR := mode == clicker.ModeText || mode == clicker.ModeMixed
	hc.Add(monitor.CommandCheck("tesseract", needsOCR, s.TesseractPath, "--version"))

	hc.Add(monitor.Check{
		Name:     "sound player",
		Required: false,
		Run: func(context.Context) (string, error) {
			for _, player := range []string{"paplay", "aplay"} {
				if path, err := exec.LookPath(player); err == nil {
					return path, nil
				}
			}
			return "", errors.New("neither paplay nor aplay found")
		},
	})

	return hc
}

func writeChecks(out io.Writer, results []monitor.CheckResult) {
	for _, r := range results {
		status := "ok"
		detail := r.Detail
		if !r.OK() {
			status = "FAIL"
			if !r.Required {
				status = "warn"
			}
			detail = r.Err.Error()
		}
		fmt.Fprintf(out, "[%-4s] %-15s %s\n", status, r.Name, detail)
	}
}
