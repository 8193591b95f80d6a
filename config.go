package main

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spotdemo4/message-panel/internal/backend"
	"github.com/spotdemo4/message-panel/internal/tui"
)

const (
	envFile      = "message-panel.env"
	headerPrefix = "BACKEND_HEADER_"
)

type config struct {
	url     *url.URL
	headers map[string]string
	timeout time.Duration
	logFile string
}

func getConfig() (c config, err error) {
	loadEnvFiles(envFiles())

	return parseConfig(os.Getenv, os.Environ())
}

// envFiles lists the .env files to load, most specific first.
func envFiles() []string {
	files := []string{".env"}

	configDir, err := os.UserConfigDir()
	if err != nil {
		tui.PrintWarn("warning: could not get config dir: %v", err)
	} else {
		files = append(files, filepath.Join(configDir, envFile))
	}

	return files
}

// loadEnvFiles loads each file that exists. godotenv never overrides a
// variable that is already set, so the process env wins over every file
// and earlier files win over later ones.
func loadEnvFiles(files []string) {
	for _, f := range files {
		err := godotenv.Load(f)
		if err != nil && !os.IsNotExist(err) {
			tui.PrintWarn("warning: could not load %s: %v", f, err)
		}
	}
}

func parseConfig(getenv func(string) string, environ []string) (c config, err error) {
	urlStr := getenv("NEXT_PUBLIC_BACKEND_URL")
	if urlStr == "" {
		urlStr = backend.DefaultURL
	}
	c.url, err = url.Parse(urlStr)
	if err != nil {
		return c, fmt.Errorf("could not parse url: %w", err)
	}
	if c.url.Scheme == "" || c.url.Host == "" {
		return c, fmt.Errorf("could not parse url: %q is not absolute", urlStr)
	}

	if s := getenv("BACKEND_TIMEOUT"); s != "" {
		c.timeout, err = time.ParseDuration(s)
		if err != nil {
			return c, fmt.Errorf("invalid value for 'BACKEND_TIMEOUT': %w", err)
		}
		if c.timeout < 0 {
			return c, fmt.Errorf("invalid value for 'BACKEND_TIMEOUT': %s is negative", s)
		}
	}

	c.logFile = getenv("MP_LOG_FILE")
	if c.logFile == "" {
		cacheDir, err := os.UserCacheDir()
		if err != nil {
			cacheDir = os.TempDir()
		}
		c.logFile = filepath.Join(cacheDir, "message-panel.log")
	}

	// BACKEND_HEADER_X_API_KEY=abc -> X-API-KEY: abc
	c.headers = map[string]string{}
	for _, e := range environ {
		if !strings.HasPrefix(e, headerPrefix) {
			continue
		}

		kv := strings.SplitN(e, "=", 2)
		if len(kv) != 2 {
			continue
		}

		name := strings.ReplaceAll(strings.TrimPrefix(kv[0], headerPrefix), "_", "-")
		if name == "" {
			continue
		}

		c.headers[name] = kv[1]
	}

	return c, nil
}
