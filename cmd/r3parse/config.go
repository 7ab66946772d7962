package main

import (
	"flag"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type config struct {
	Case        bool          `mapstructure:"case"`
	Mode        string        `mapstructure:"mode"`
	Trace       bool          `mapstructure:"trace"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SeriesLimit int           `mapstructure:"series-limit"`
	JSON        bool          `mapstructure:"json"`
	Diff        bool          `mapstructure:"diff"`
	Check       string        `mapstructure:"check"`
	Jobs        int           `mapstructure:"jobs"`
	CacheSize   int           `mapstructure:"cache-size"`
	Log         logConfig     `mapstructure:"log"`
}

type logConfig struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level"`
	MaxSize    int    `mapstructure:"max-size"`
	MaxAge     int    `mapstructure:"max-age"`
	MaxBackups int    `mapstructure:"max-backups"`
	Compress   bool   `mapstructure:"compress"`
}

// loadConfig layers, lowest first: defaults, the config file, R3PARSE_*
// environment variables, then flags given on the command line.
func loadConfig(fs *flag.FlagSet, path string) (cfg config, err error) {
	v := viper.New()
	v.SetDefault("case", false)
	v.SetDefault("mode", "string")
	v.SetDefault("trace", false)
	v.SetDefault("timeout", time.Duration(0))
	v.SetDefault("series-limit", 0)
	v.SetDefault("json", false)
	v.SetDefault("diff", false)
	v.SetDefault("check", "")
	v.SetDefault("jobs", runtime.GOMAXPROCS(0))
	v.SetDefault("cache-size", 64)
	v.SetDefault("log.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max-size", 10)
	v.SetDefault("log.max-age", 7)
	v.SetDefault("log.max-backups", 3)
	v.SetDefault("log.compress", false)

	v.SetEnvPrefix("r3parse")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return cfg, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name != "config" {
			v.Set(f.Name, f.Value.String())
		}
	})

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	if cfg.Jobs < 1 {
		cfg.Jobs = 1
	}
	return cfg, nil
}

func newLogger(cfg config, stderr io.Writer) (*zap.Logger, error) {
	level := new(zapcore.Level)
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		return nil, err
	}
	if cfg.Trace {
		*level = zapcore.DebugLevel
	}

	var core zapcore.Core
	if cfg.Log.File != "" {
		core = zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig()),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.Log.File,
				MaxSize:    cfg.Log.MaxSize,
				MaxAge:     cfg.Log.MaxAge,
				MaxBackups: cfg.Log.MaxBackups,
				Compress:   cfg.Log.Compress,
			}),
			level)
	} else {
		core = zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig()),
			zapcore.AddSync(stderr),
			level)
	}
	return zap.New(core, zap.AddCaller()), nil
}

func encoderConfig() zapcore.EncoderConfig {
	encodeConfig := zap.NewProductionEncoderConfig()
	encodeConfig.TimeKey = "time"
	encodeConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encodeConfig.EncodeDuration = zapcore.SecondsDurationEncoder
	encodeConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	encodeConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return encodeConfig
}
