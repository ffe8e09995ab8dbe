package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("cli")

// InitLogger sets the go-logging backend to the given level. Output goes to
// logFile, or to stderr when logFile is empty. The returned closer releases
// the file.
func InitLogger(logLevel, logFile string) (io.Closer, error) {
	level, err := logging.LogLevel(logLevel)
	if err != nil {
		return nil, err
	}

	var out io.WriteCloser = nopCloser{os.Stderr}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o700); err != nil {
			return nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out = f
	}

	baseBackend := logging.NewLogBackend(out, "", 0)
	format := logging.MustStringFormatter(
		`%{time:2006-01-02 15:04:05} %{level:.5s} %{module:-8s} %{message}`,
	)
	backendFormatter := logging.NewBackendFormatter(baseBackend, format)

	backendLeveled := logging.AddModuleLevel(backendFormatter)
	backendLeveled.SetLevel(level, "")

	logging.SetBackend(backendLeveled)
	return out, nil
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
