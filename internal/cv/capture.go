package cv

import (
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/vova616/screenshot"

	"jordanella.com/autoclicker-go/internal/logging"
)

// Capturer interface for different capture methods
type Capturer interface {
	CaptureFrame() (*image.RGBA, error)
	Name() string
}

// CommandCapturer captures the screen by running an external tool that writes
// a PNG to a path, then decoding that file.
type CommandCapturer struct {
	name    string
	command func(outputPath string) *exec.Cmd
}

// NewScrotCapturer captures with scrot
func NewScrotCapturer() *CommandCapturer {
	return &CommandCapturer{
		name: "scrot",
		command: func(outputPath string) *exec.Cmd {
			return exec.Command("scrot", outputPath)
		},
	}
}

// NewImportCapturer captures the root window with ImageMagick's import
func NewImportCapturer() *CommandCapturer {
	return &CommandCapturer{
		name: "import",
		command: func(outputPath string) *exec.Cmd {
			return exec.Command("import", "-window", "root", outputPath)
		},
	}
}

// Name returns the capture method name
func (c *CommandCapturer) Name() string {
	return c.name
}

// CaptureFrame runs the tool and decodes its output
func (c *CommandCapturer) CaptureFrame() (*image.RGBA, error) {
	dir, err := os.MkdirTemp("", "autoclicker-capture-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}
	defer os.RemoveAll(dir)

	outputPath := filepath.Join(dir, "screen.png")
	cmd := c.command(outputPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w, output: %s", c.name, err, output)
	}

	img, err := imaging.Open(outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s output: %w", c.name, err)
	}

	return NormalizeRGB(img), nil
}

// ScreenshotCapturer captures in-process through the X server
type ScreenshotCapturer struct{}

// NewScreenshotCapturer creates an in-process capturer
func NewScreenshotCapturer() *ScreenshotCapturer {
	return &ScreenshotCapturer{}
}

// Name returns the capture method name
func (c *ScreenshotCapturer) Name() string {
	return "screenshot"
}

// CaptureFrame grabs the whole screen
func (c *ScreenshotCapturer) CaptureFrame() (*image.RGBA, error) {
	img, err := screenshot.CaptureScreen()
	if err != nil {
		return nil, err
	}
	return img, nil
}

// FallbackCapturer tries each method in order and returns the first frame produced
type FallbackCapturer struct {
	methods []Capturer
	logger  *logging.Logger
}

// NewFallbackCapturer creates a capturer over an ordered list of methods
func NewFallbackCapturer(logger *logging.Logger, methods ...Capturer) *FallbackCapturer {
	return &FallbackCapturer{
		methods: methods,
		logger:  logger,
	}
}

// NewDefaultCapturer returns the scrot, import, in-process chain
func NewDefaultCapturer(logger *logging.Logger) *FallbackCapturer {
	return NewFallbackCapturer(logger,
		NewScrotCapturer(),
		NewImportCapturer(),
		NewScreenshotCapturer(),
	)
}

// Name returns the capture method name
func (f *FallbackCapturer) Name() string {
	return "fallback"
}

// CaptureFrame returns the first successful capture. When every method fails
// the result is a *CaptureError joining each method's error.
func (f *FallbackCapturer) CaptureFrame() (*image.RGBA, error) {
	if len(f.methods) == 0 {
		return nil, &CaptureError{Err: ErrNoCaptureMethods}
	}

	var errs []error
	for _, method := range f.methods {
		frame, err := method.CaptureFrame()
		if err == nil && frame != nil {
			return frame, nil
		}
		if err == nil {
			err = errors.New("returned no frame")
		}
		f.logger.DebugWithContext("Capture method failed", map[string]interface{}{
			"method": method.Name(),
			"error":  err.Error(),
		})
		errs = append(errs, fmt.Errorf("%s: %w", method.Name(), err))
	}

	return nil, &CaptureError{Err: errors.Join(errs...)}
}
