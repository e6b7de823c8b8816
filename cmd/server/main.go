package main

import (
	"github.com/guwenlab/insight/internal/server"
	"github.com/guwenlab/insight/internal/util"
	"github.com/guwenlab/insight/pkg/logger"
	"github.com/guwenlab/insight/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	debug := util.GetEnvBool("DEBUG", false)

	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug: debug,
	})
	logger.Init(consoleLogger)

	server.Init()
}
