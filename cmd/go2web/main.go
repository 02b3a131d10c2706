package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// CLI flags
	urlFlag            string
	searchFlag         string
	openFlag           int
	noCacheFlag        bool
	clearCacheFlag     bool
	rawFlag            bool
	configFilenameFlag string
	cacheDirFlag       string
	providerFlag       string
	verbosityDebugFlag bool
	verbosityTraceFlag bool
	logFilenameFlag    string

	// this is set by goreleaser
	version string
)

func init() {
	flag.StringVar(&urlFlag, "u", "", "Make an HTTP request to the specified URL and print the response")
	flag.StringVar(&searchFlag, "s", "", "Search the term and print the top results")
	flag.IntVar(&openFlag, "o", 0, "Open result number N of the last search")
	flag.BoolVar(&noCacheFlag, "no-cache", false, "Do not use the cache for this request")
	flag.BoolVar(&clearCacheFlag, "clear-cache", false, "Remove all cached responses")
	flag.BoolVar(&rawFlag, "raw", false, "Print the raw response instead of extracted text")
	flag.StringVar(&configFilenameFlag, "config", "", "Path to config file")
	flag.StringVar(&cacheDirFlag, "cache-dir", "", "Cache directory (overrides config)")
	flag.StringVar(&providerFlag, "provider", "", "Cache provider: file, sqlite, leveldb or memory (overrides config)")
	flag.BoolVar(&verbosityDebugFlag, "v", false, "Verbosity: debug logging")
	flag.BoolVar(&verbosityTraceFlag, "vv", false, "Verbosity: trace logging")
	flag.StringVar(&logFilenameFlag, "log-file", "", "Log file to use (in addition to stderr)")

	if version == "" {
		version = "DEV"
	}
}

func main() {
	flag.Parse()
	setupLogging()

	actions := 0
	for _, set := range []bool{urlFlag != "", searchFlag != "", openFlag != 0} {
		if set {
			actions++
		}
	}
	if actions > 1 {
		log.Fatal().Msg("Only one of -u, -s and -o can be used at a time")
	}
	if actions == 0 && !clearCacheFlag {
		flag.Usage()
		os.Exit(2)
	}

	configFilename := configFilenameFlag
	if configFilename == "" {
		configFilename = defaultConfigFile()
	}
	config, err := getConfig(configFilename)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cacheDirFlag != "" {
		config.Cache.Dir = expandHome(cacheDirFlag)
	}
	if providerFlag != "" {
		config.Cache.Provider = providerFlag
	}

	a, err := newApp(config, options{noCache: noCacheFlag, raw: rawFlag})
	if err != nil {
		log.Fatal().Err(err).Msg("Could not start")
	}
	defer a.Close()

	if clearCacheFlag {
		if err := a.clearCache(); err != nil {
			log.Fatal().Err(err).Msg("Could not clear cache")
		}
		fmt.Fprintln(os.Stderr, "Cache cleared")
	}

	switch {
	case urlFlag != "":
		err = a.get(os.Stdout, urlFlag)
	case searchFlag != "":
		err = a.search(os.Stdout, searchFlag)
	case openFlag != 0:
		err = a.open(os.Stdout, openFlag)
	}
	if err != nil {
		a.Close()
		log.Fatal().Err(err).Msg("Request failed")
	}
}

func setupLogging() {
	logLevel := zerolog.WarnLevel
	if verbosityDebugFlag {
		logLevel = zerolog.DebugLevel
	}
	if verbosityTraceFlag {
		logLevel = zerolog.TraceLevel
	}

	// logs go to stderr, content to stdout
	// also output to a rotated logfile if specified
	logOutputs := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	if logFilenameFlag != "" {
		logOutputs = append(logOutputs, &lumberjack.Logger{
			Filename:   logFilenameFlag,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		})
	}
	multiWriter := zerolog.MultiLevelWriter(logOutputs...)
	log.Logger = log.Level(logLevel).Output(multiWriter).
		With().Timestamp().Str("version", version).Logger()
}
