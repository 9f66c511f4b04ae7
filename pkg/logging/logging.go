// Package logging 提供全局结构化日志
//
// 系统通过 For("SystemName") 获取子日志器，消息保持 "[SystemName] ..." 前缀。
// Setup 之前所有输出都被丢弃，测试无需额外配置。
package logging

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// Logger 全局日志器
var Logger = zerolog.Nop()

// ParseLevel 把配置中的日志级别名转换为 zerolog 级别，空串或未知名称按 info 处理
func ParseLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(name)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}

// Setup 初始化全局日志器，输出控制台格式
func Setup(level string, out io.Writer) {
	zerolog.SetGlobalLevel(ParseLevel(level))
	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    true,
	}).With().Timestamp().Logger()

	Logger.Info().Str("loglevel", zerolog.GlobalLevel().String()).Msg("Logging set up")
}

// For 返回带 system 字段的子日志器
func For(system string) zerolog.Logger {
	return Logger.With().Str("system", system).Logger()
}
