package cv

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// TextBox is one recognised word with its bounding box
type TextBox struct {
	Text       string
	X, Y, W, H int
	Confidence float64
}

// Center returns (X + W/2, Y + H/2)
func (b TextBox) Center() image.Point {
	return image.Point{X: b.X + b.W/2, Y: b.Y + b.H/2}
}

// TextDetector recognises words in an image. Box coordinates are relative to
// the image's top-left pixel.
type TextDetector interface {
	DetectText(ctx context.Context, img image.Image) ([]TextBox, error)
}

// TesseractDetector runs the tesseract CLI and parses its TSV output
type TesseractDetector struct {
	path     string
	language string
}

// NewTesseractDetector creates a detector using "tesseract" from PATH
func NewTesseractDetector(language string) *TesseractDetector {
	if language == "" {
		language = "eng"
	}
	return &TesseractDetector{
		path:     "tesseract",
		language: language,
	}
}

// WithPath sets the tesseract executable
func (d *TesseractDetector) WithPath(path string) *TesseractDetector {
	d.path = path
	return d
}

// DetectText encodes img as PNG, pipes it through tesseract and returns the words found
func (d *TesseractDetector) DetectText(ctx context.Context, img image.Image) ([]TextBox, error) {
	var input bytes.Buffer
	if err := png.Encode(&input, img); err != nil {
		return nil, fmt.Errorf("failed to encode OCR input: %w", err)
	}

	cmd := exec.CommandContext(ctx, d.path, "stdin", "stdout", "-l", d.language, "tsv")
	cmd.Stdin = &input

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("tesseract failed: %w, output: %s", err, strings.TrimSpace(stderr.String()))
	}

	return ParseTSV(&stdout)
}

// ParseTSV reads tesseract TSV output. The header row and rows without text are skipped.
func ParseTSV(r io.Reader) ([]TextBox, error) {
	var boxes []TextBox

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) < 12 || fields[0] == "level" {
			continue
		}

		text := strings.TrimSpace(strings.Join(fields[11:], "\t"))
		if text == "" {
			continue
		}

		var coords [4]int
		for i := range coords {
			v, err := strconv.Atoi(strings.TrimSpace(fields[6+i]))
			if err != nil {
				return nil, fmt.Errorf("tsv line %d: bad coordinate %q", line, fields[6+i])
			}
			coords[i] = v
		}

		conf, err := strconv.ParseFloat(strings.TrimSpace(fields[10]), 64)
		if err != nil {
			conf = -1
		}

		boxes = append(boxes, TextBox{
			Text:       text,
			X:          coords[0],
			Y:          coords[1],
			W:          coords[2],
			H:          coords[3],
			Confidence: conf,
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read tsv: %w", err)
	}
	return boxes, nil
}

// FindText returns the first box, in detector order, whose text contains
// target case-insensitively.
func FindText(boxes []TextBox, target string) (TextBox, bool) {
	needle := strings.ToLower(target)
	for _, box := range boxes {
		if strings.Contains(strings.ToLower(box.Text), needle) {
			return box, true
		}
	}
	return TextBox{}, false
}
