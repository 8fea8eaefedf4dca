package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// Config 定義 Log 輸出的配置
type Config struct {
	Level      string `yaml:"level"`       // "debug", "info", "warn", "error"
	Format     string `yaml:"format"`      // "text" 或 "json"
	TimeFormat string `yaml:"time_format"` // 例如 "2006-01-02 15:04:05"
	Prefix     string `yaml:"prefix"`
	Caller     bool   `yaml:"caller"`
}

var formatters = map[string]log.Formatter{
	"json":   log.JSONFormatter,
	"text":   log.TextFormatter,
	"logfmt": log.LogfmtFormatter,
}

// New 建立以 charmbracelet/log 為 Handler 的 slog.Logger，輸出到 stdout 並設為預設 Logger
func New(cfg Config) *slog.Logger {
	l := NewWithWriter(os.Stdout, cfg)
	slog.SetDefault(l)
	return l
}

// NewWithWriter 同 New，但輸出到指定的 writer，不會改動預設 Logger
func NewWithWriter(w io.Writer, cfg Config) *slog.Logger {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}

	formatter := log.TextFormatter
	if f, ok := formatters[cfg.Format]; ok {
		formatter = f
	}

	handler := log.NewWithOptions(w, log.Options{
		ReportCaller:    cfg.Caller,
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           level,
		Prefix:          cfg.Prefix,
		Formatter:       formatter,
	})
	handler.SetStyles(styles())

	return slog.New(handler)
}

func styles() *log.Styles {
	s := log.DefaultStyles()
	info := lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"}
	warn := lipgloss.AdaptiveColor{Light: "#EE6FF8", Dark: "#EE6FF8"}
	errColor := lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF6B6B"}
	debug := lipgloss.AdaptiveColor{Light: "#7E57C2", Dark: "#7E57C2"}

	levels := map[log.Level]struct {
		label string
		color lipgloss.AdaptiveColor
	}{
		log.DebugLevel: {"DEBU", debug},
		log.InfoLevel:  {"INFO", info},
		log.WarnLevel:  {"WARN", warn},
		log.ErrorLevel: {"ERRO", errColor},
	}
	for lvl, v := range levels {
		s.Levels[lvl] = lipgloss.NewStyle().
			SetString(v.label).
			Bold(true).
			Padding(0, 1).
			Foreground(v.color)
	}

	// 帳戶與金額欄位特別標示，方便在 console 追查
	s.Keys["error"] = lipgloss.NewStyle().Foreground(errColor)
	s.Values["error"] = lipgloss.NewStyle().Bold(true)
	s.Keys["account_id"] = lipgloss.NewStyle().Foreground(info)
	s.Keys["amount"] = lipgloss.NewStyle().Foreground(warn)
	s.Keys["method"] = lipgloss.NewStyle().Foreground(debug)
	return s
}
