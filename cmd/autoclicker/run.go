package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"jordanella.com/autoclicker-go/internal/audio"
	"jordanella.com/autoclicker-go/internal/clicker"
	"jordanella.com/autoclicker-go/internal/config"
	"jordanella.com/autoclicker-go/internal/cv"
	"jordanella.com/autoclicker-go/internal/database"
	"jordanella.com/autoclicker-go/internal/events"
	"jordanella.com/autoclicker-go/internal/input"
	"jordanella.com/autoclicker-go/internal/logging"
)

func newRunCmd(settingsPath *string) *cobra.Command {
	var (
		flags     settingsFlags
		save      bool
		noHistory bool
		eventLog  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the scan loop",
		Long: `Starts scanning with the saved settings, overridden by any flags given.

While running, type p and Enter to pause or resume, s or q and Enter to
stop. Ctrl+C also stops the loop and prints the session summary. The
effective settings are written back after a clean shutdown unless
--save=false is given.`,
		Example: `  autoclicker run -t ok_button.png -c 0.9
  autoclicker run -m text -t "Accept,Continue" --region 0,0,800,600
  autoclicker run -p patterns/farm.yaml --max-runtime 600`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := config.LoadOrDefault(*settingsPath)
			if err := flags.apply(cmd, s); err != nil {
				return err
			}

			if err := logging.Configure(logging.ParseLevel(s.LogLevel), ""); err != nil {
				return err
			}
			defer logging.Sync()

			err := runScanLoop(cmd.Context(), s, runOptions{
				history:  !noHistory,
				eventLog: eventLog,
				in:       cmd.InOrStdin(),
				out:      cmd.OutOrStdout(),
			})
			if err != nil || !save {
				return err
			}

			if err := config.SaveToINI(s, *settingsPath); err != nil {
				return fmt.Errorf("failed to save settings: %w", err)
			}
			return nil
		},
	}

	flags.bind(cmd)
	cmd.Flags().BoolVar(&save, "save", true, "Persist the effective settings after a clean shutdown")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Do not record the run in the history database")
	cmd.Flags().StringVar(&eventLog, "event-log", "", "Also write every event to a file in this directory")

	return cmd
}

type runOptions struct {
	history  bool
	eventLog string
	in       io.Reader
	out      io.Writer
}

func runScanLoop(ctx context.Context, s *config.Settings, ro runOptions) error {
	logger := logging.NewLogger("autoclicker")

	opts, err := s.ToOptions()
	if err != nil {
		return err
	}

	bus := events.NewEventBus(256)
	defer bus.Stop()

	if s.LogLevel == string(logging.LogLevelDebug) || ro.eventLog != "" {
		eventLogger, err := logging.NewEventLogger(bus, logging.NewLogger("events"), ro.eventLog)
		if err != nil {
			return err
		}
		defer eventLogger.Close()
	}

	if ro.history && s.HistoryDB != "" {
		db, err := database.OpenAndMigrate(s.HistoryDB)
		if err != nil {
			logger.Warn(fmt.Sprintf("Run history disabled: %v", err))
		} else {
			defer db.Close()
			recorder := database.NewRecorder(db, logging.NewLogger("history"))
			recorder.Attach(bus)
		}
	}

	xdotool, err := input.FindXdotool(s.XdotoolPath)
	if err != nil {
		return err
	}

	bot, err := clicker.New(opts, clicker.Dependencies{
		Capturer: cv.NewDefaultCapturer(logging.NewLogger("capture")),
		Detector: cv.NewTesseractDetector(s.OCRLanguage).WithPath(s.TesseractPath),
		Injector: input.NewController(xdotool),
		Player:   audio.NewCommandPlayer(),
		Bus:      bus,
		Logger:   logging.NewLogger("clicker"),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(ro.out, "Press p+Enter to pause/resume, s+Enter to stop, Ctrl+C to quit")
	consoleCtx, closeConsole := context.WithCancel(ctx)
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		watchConsole(consoleCtx, ro.in, bot, ro.out)
	}()

	err = bot.Run(ctx)
	closeConsole()
	<-consoleDone
	// Drain pending events into the event log and history before they close
	bus.Stop()
	printSummary(ro.out, bot.Stats())

	if clicker.IsCaptureError(err) {
		return fmt.Errorf("stopped: screen capture failed: %w", err)
	}
	return err
}

func printSummary(out io.Writer, snap clicker.Snapshot) {
	fmt.Fprintln(out, "\n=== Session Summary ===")
	fmt.Fprintf(out, "Runtime:          %s\n", snap.Elapsed.Round(time.Second))
	fmt.Fprintf(out, "Clicks attempted: %d\n", snap.ClicksAttempted)
	fmt.Fprintf(out, "Clicks succeeded: %d\n", snap.ClicksSucceeded)
	fmt.Fprintf(out, "Success rate:     %.1f%%\n", snap.SuccessRate)
}
