package log

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

const (
	LOG_CLI     = "CL"
	LOG_BACKEND = "BE"
	LOG_IMAP    = "IM"
	LOG_SMTP    = "SM"
	LOG_CACHE   = "CA"
	LOG_SECRETS = "SE"
)

var prefixes = []string{
	LOG_CLI,
	LOG_BACKEND,
	LOG_IMAP,
	LOG_SMTP,
	LOG_CACHE,
	LOG_SECRETS,
}

var loggers map[string]*logrus.Logger

func init() {
	InitLogging("warn", os.Stderr)
}

// PrefixLogger prepends a subsystem tag to every formatted entry.
type PrefixLogger struct {
	formatter logrus.Formatter
	prefix    []byte
}

func NewPrefixLogger(prefix string) *PrefixLogger {
	formatter := &logrus.TextFormatter{}
	formatter.FullTimestamp = true
	formatter.TimestampFormat = "15:04:05"
	formatter.DisableColors = strings.Contains(runtime.GOOS, "windows")
	return &PrefixLogger{
		formatter: formatter,
		prefix:    []byte(fmt.Sprintf("%s:\t", prefix)),
	}
}

func (f *PrefixLogger) Format(entry *logrus.Entry) ([]byte, error) {
	text, err := f.formatter.Format(entry)
	if err != nil {
		return nil, err
	}
	return append(f.prefix, text...), nil
}

func ParseLevel(loglevel string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(loglevel)) {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "error":
		return logrus.ErrorLevel
	case "off":
		return logrus.PanicLevel
	}

	// Warn is default so that user output is not drowned in diagnostics.
	return logrus.WarnLevel
}

// InitLogging configures every subsystem logger to write to out at
// loglevel. Loggers already handed out are updated in place.
func InitLogging(loglevel string, out io.Writer) {
	if loggers == nil {
		loggers = make(map[string]*logrus.Logger, len(prefixes))
	}
	for _, prefix := range prefixes {
		l, ok := loggers[prefix]
		if !ok {
			l = logrus.New()
			l.Formatter = NewPrefixLogger(prefix)
			loggers[prefix] = l
		}
		l.SetOutput(out)
		l.SetLevel(ParseLevel(loglevel))
	}
}

func SetLogLevel(loglevel string) {
	for _, l := range loggers {
		l.SetLevel(ParseLevel(loglevel))
	}
}

func Logger(logger string) *logrus.Logger {
	l, ok := loggers[logger]
	if !ok {
		panic("Logger " + logger + " unknown")
	}

	return l
}
