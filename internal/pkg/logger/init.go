package logger

import (
	"SetMatch/internal/api/config"
	"io"
	log "log/slog"
	"net"
	"os"
	"strings"
	"time"
)

var LogWriter io.Writer = os.Stdout

// slowThreshold 慢调用阈值，gorm / mongo / redis 钩子共用
var slowThreshold = 200 * time.Millisecond

// InitLogger 初始化全局 slog：stdout JSON + 可选 Logstash TCP 上报
func InitLogger() {
	cfg := config.Cfg
	level := parseLevel(cfg.Log.Level)
	if cfg.Log.SlowMs > 0 {
		slowThreshold = time.Duration(cfg.Log.SlowMs) * time.Millisecond
	}

	hStdout := log.NewJSONHandler(os.Stdout, &log.HandlerOptions{Level: level})
	var finalHandler log.Handler = hStdout

	if cfg.Logstash.Address != "" {
		conn, err := net.DialTimeout("tcp", cfg.Logstash.Address, 3*time.Second)
		if err == nil {
			hRemote := log.NewJSONHandler(conn, &log.HandlerOptions{Level: level}).
				WithAttrs([]log.Attr{
					log.String("target_index", cfg.Logstash.Index),
					log.String("log_token", cfg.Logstash.Token),
				})
			finalHandler = &TeeHandler{
				handlers: []log.Handler{hStdout, &RemoteFilterHandler{next: hRemote}},
			}
			LogWriter = conn
		} else {
			log.Warn("Failed to connect to Logstash, logging to stdout only", "err", err)
		}
	}

	log.SetDefault(log.New(&ContextHandler{finalHandler}))
}

// SlowThreshold 返回当前慢调用阈值
func SlowThreshold() time.Duration {
	return slowThreshold
}

func parseLevel(s string) log.Level {
	switch strings.ToLower(s) {
	case "debug":
		return log.LevelDebug
	case "warn":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
