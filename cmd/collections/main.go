package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fulldump/goconfig"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/go-kit/log/level"

	"github.com/fulldump/collections/bootstrap"
	"github.com/fulldump/collections/configuration"
)

var banner = `
  ____      _ _           _   _                 
 / ___|___ | | | ___  ___| |_(_) ___  _ __  ___ 
| |   / _ \| | |/ _ \/ __| __| |/ _ \| '_ \/ __|
| |__| (_) | | |  __/ (__| |_| | (_) | | | \__ \
 \____\___/|_|_|\___|\___|\__|_|\___/|_| |_|___/
                                  version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		json.MarshalWrite(os.Stdout, c, jsontext.WithIndent("    "))
		fmt.Println()
	}

	logger := bootstrap.NewLogger(os.Stderr, c.LogLevel)

	start, stop, err := bootstrap.Bootstrap(&c, os.Stdout, logger)
	if err != nil {
		level.Error(logger).Log("msg", "bootstrap", "err", err)
		os.Exit(-1)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		sig := <-signalChan
		level.Info(logger).Log("msg", "signal received", "signal", sig.String())
		stop()
		os.Exit(1)
	}()

	exitCode := 0

	err = start()
	if err != nil {
		level.Error(logger).Log("msg", "run", "err", err)
		exitCode = 1
	}

	err = stop()
	if err != nil {
		level.Warn(logger).Log("msg", "stop", "err", err)
		exitCode = 1
	}

	os.Exit(exitCode)
}
