package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/zachspang/asciimovie/internal/logging"
)

func TestConsoleFormat(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Writer: &buf})
	g.Expect(err).NotTo(HaveOccurred())

	logger.Info("Processing video", "fps", 29.97, "frames", 1800)
	logger.Warn("No valid 'fps' data found")
	logger.Error("file not found", "path", "/tmp/my movie.obj")
	logger.Debug("hidden at info level")

	g.Expect(buf.String()).To(Equal(
		"Processing video fps=29.97 frames=1800\n" +
			"Warning: No valid 'fps' data found\n" +
			"Error: file not found path=\"/tmp/my movie.obj\"\n"))
}

func TestConsoleDebugIncludesTimestamp(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Writer: &buf})
	g.Expect(err).NotTo(HaveOccurred())

	logger.With("component", "player").WithGroup("frame").Debug("tick", "delay", 40*time.Millisecond)
	g.Expect(buf.String()).To(MatchRegexp(`^\d\d:\d\d:\d\d\.\d{3} DEBUG tick component=player frame\.delay=40ms\n$`))
}

func TestJSONFormat(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Format: "JSON", Level: "warn", Writer: &buf})
	g.Expect(err).NotTo(HaveOccurred())

	logger.Info("dropped")
	logger.Warn("kept", "frames", 3)

	var record map[string]any
	g.Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
	g.Expect(record).To(HaveKeyWithValue("msg", "kept"))
	g.Expect(record).To(HaveKeyWithValue("level", "WARN"))
	g.Expect(record).To(HaveKeyWithValue("frames", BeNumerically("==", 3)))
}

func TestUnsupportedFormat(t *testing.T) {
	g := NewWithT(t)

	_, err := logging.New(logging.Options{Format: "xml"})
	g.Expect(err).To(MatchError(ContainSubstring("unsupported value")))
}

func TestNop(t *testing.T) {
	g := NewWithT(t)

	logger := logging.NewNop()
	g.Expect(logger).NotTo(BeNil())
	logger.Error("nothing happens")
}
