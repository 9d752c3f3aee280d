package cmd

import (
	"errors"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"gooze.dev/pkg/weevil/internal/domain"
)

const (
	configVersionKey     = "version"
	currentConfigVersion = 1

	configBaseName   = "weevil"
	configFileName   = configBaseName + ".yaml"
	configFolderPath = "."

	outputFlagName         = "output"
	excludeFlagName        = "exclude"
	verboseFlagName        = "verbose"
	logFileFlagName        = "log-file"
	runParallelFlagName    = "parallel"
	shardFlagName          = "shard"
	coverageFlagName       = "coverage-analysis"
	timeoutFactorFlagName  = "timeout-factor"
	timeoutExtraFlagName   = "timeout-extra"
	testTimeoutFlagName    = "test-timeout"
	failFastFlagName       = "fail-fast"
	kindsFlagName          = "kinds"
	sinceFlagName          = "since"
	baselineFlagName       = "baseline"
	projectVersionFlagName = "project-version"
	buildTagsFlagName      = "tags"
	modFileFlagName        = "modfile"
	pgoFlagName            = "pgo"

	excludeConfigKey        = "paths.exclude"
	runParallelConfigKey    = "run.parallel"
	coverageConfigKey       = "run.coverage_analysis"
	timeoutFactorConfigKey  = "run.timeout_factor"
	timeoutExtraConfigKey   = "run.timeout_extra"
	testTimeoutConfigKey    = "run.test_timeout"
	failFastConfigKey       = "run.fail_fast"
	kindsConfigKey          = "run.kinds"
	sinceEnabledConfigKey   = "since.enabled"
	sinceTargetConfigKey    = "since.target"
	baselineConfigKey       = "baseline.enabled"
	projectVersionConfigKey = "project_version"
	buildTagsConfigKey      = "build.tags"
	modFileConfigKey        = "build.modfile"
	pgoConfigKey            = "build.pgo_profile"

	defaultReportsDir    = ".weevil-reports"
	defaultRunParallel   = 1
	defaultSinceTarget   = "main"
	defaultCoverageMode  = string(domain.CoveragePerTest)
	defaultTestTimeout   = 10 * time.Minute
	defaultTimeoutFactor = domain.DefaultTimeoutFactor
	defaultTimeoutExtra  = domain.DefaultTimeoutExtra

	envPrefix = "WEEVIL"

	logFilenameKey   = "log.filename"
	logLevelKey      = "log.level"
	logVerboseKey    = "log.verbose"
	logMaxSizeKey    = "log.max_size"
	logMaxBackupsKey = "log.max_backups"
	logMaxAgeKey     = "log.max_age"
	logCompressKey   = "log.compress"

	defaultLogFilename   = ".weevil.log"
	defaultLogLevel      = "info"
	defaultLogVerbose    = false
	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

var globalLogger *slog.Logger

func init() {
	viper.SetConfigName(configBaseName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configFolderPath)
	viper.SetConfigFile(filepath.Join(configFolderPath, configFileName))
	viper.AutomaticEnv()
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			slog.Debug("No configuration file loaded", "error", err)
		}
	}
}

func setDefaults() {
	viper.SetDefault(configVersionKey, currentConfigVersion)
	viper.SetDefault(outputFlagName, defaultReportsDir)
	viper.SetDefault(excludeConfigKey, []string{})

	viper.SetDefault(runParallelConfigKey, defaultRunParallel)
	viper.SetDefault(coverageConfigKey, defaultCoverageMode)
	viper.SetDefault(timeoutFactorConfigKey, defaultTimeoutFactor)
	viper.SetDefault(timeoutExtraConfigKey, defaultTimeoutExtra)
	viper.SetDefault(testTimeoutConfigKey, defaultTestTimeout)
	viper.SetDefault(failFastConfigKey, false)
	viper.SetDefault(kindsConfigKey, []string{})

	viper.SetDefault(sinceEnabledConfigKey, false)
	viper.SetDefault(sinceTargetConfigKey, "")
	viper.SetDefault(baselineConfigKey, false)
	viper.SetDefault(projectVersionConfigKey, "")

	viper.SetDefault(buildTagsConfigKey, []string{})
	viper.SetDefault(modFileConfigKey, "")
	viper.SetDefault(pgoConfigKey, "")

	// Logging defaults (used by config/env and as fallbacks for flags).
	viper.SetDefault(logFilenameKey, defaultLogFilename)
	viper.SetDefault(logLevelKey, defaultLogLevel)
	viper.SetDefault(logVerboseKey, defaultLogVerbose)
	viper.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	viper.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	viper.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	viper.SetDefault(logCompressKey, defaultLogCompress)
}

// sinceTarget returns the git reference incremental runs diff against, or ""
// when since mode is off. Enabling it without a target diffs against main.
func sinceTarget() string {
	target := strings.TrimSpace(viper.GetString(sinceTargetConfigKey))
	if target != "" {
		return target
	}

	if viper.GetBool(sinceEnabledConfigKey) {
		return defaultSinceTarget
	}

	return ""
}

func parseSlogLevel(value string, defaultLevel slog.Level) slog.Level {
	level := strings.ToLower(strings.TrimSpace(value))
	if level == "" {
		return defaultLevel
	}

	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}

	// Numeric slog levels are accepted as well (e.g. -4 for debug).
	if n, err := strconv.Atoi(level); err == nil {
		return slog.Level(n)
	}

	return defaultLevel
}

// configureLogger points the global slog logger at a rotating log file.
//
// By default it logs at the configured level; verbose forces Debug.
func configureLogger(logPath string, verbose bool) {
	if strings.TrimSpace(logPath) == "" {
		logPath = viper.GetString(logFilenameKey)
	}

	if strings.TrimSpace(logPath) == "" {
		logPath = defaultLogFilename
	}

	logLevel := parseSlogLevel(viper.GetString(logLevelKey), slog.LevelInfo)
	if verbose {
		logLevel = slog.LevelDebug
	}

	logWriter := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    viper.GetInt(logMaxSizeKey),
		MaxBackups: viper.GetInt(logMaxBackupsKey),
		MaxAge:     viper.GetInt(logMaxAgeKey),
		Compress:   viper.GetBool(logCompressKey),
	}

	handler := slog.NewTextHandler(logWriter, &slog.HandlerOptions{
		AddSource: true,
		Level:     logLevel,
	})

	globalLogger = slog.New(handler)
	slog.SetDefault(globalLogger)
}
