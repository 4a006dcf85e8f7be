package main

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/Bessima/bookbind-pay/internal/middlewares/logger"
	"go.uber.org/zap"
)

func openBrowser(url string) error {
	fmt.Printf("If the browser does not open, visit %s\n", url)

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		// the printed link is still usable
		logger.Log.Debug("browser was not started", zap.Error(err))
		return nil
	}
	go func() { _ = cmd.Wait() }()
	return nil
}
