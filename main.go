package main

import (
	"go-agenda-sync/core/logger"
	"go-agenda-sync/core/server"
)

func main() {
	if err := server.Run(); err != nil {
		logger.Error("run server error", err)
	}
}
