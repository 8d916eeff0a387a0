package handlers

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/mattn/go-isatty"
)

// Color constants for terminal output
const (
	cBlack   = "\u001b[90m"
	cRed     = "\u001b[91m"
	cGreen   = "\u001b[92m"
	cYellow  = "\u001b[93m"
	cBlue    = "\u001b[94m"
	cMagenta = "\u001b[95m"
	cCyan    = "\u001b[96m"
	cWhite   = "\u001b[97m"
	cReset   = "\u001b[0m"
)

// getStatusColor returns the appropriate color for HTTP status codes
func getStatusColor(status int, enableColors bool) string {
	if !enableColors {
		return ""
	}

	switch {
	case status >= 200 && status < 300:
		return cGreen
	case status >= 300 && status < 400:
		return cBlue
	case status >= 400 && status < 500:
		return cYellow
	default:
		return cRed
	}
}

// getMethodColor returns the appropriate color for HTTP methods
func getMethodColor(method string, enableColors bool) string {
	if !enableColors {
		return ""
	}

	switch method {
	case "GET":
		return cCyan
	case "POST":
		return cGreen
	case "PUT":
		return cYellow
	case "DELETE":
		return cRed
	case "PATCH":
		return cMagenta
	case "HEAD":
		return cBlue
	case "OPTIONS":
		return cWhite
	default:
		return cReset
	}
}

// pollPaths are hit by dashboards on a timer; only every sampleEvery-th
// request to them is logged.
var pollPaths = map[string]bool{
	"/v1/sessions": true,
	"/health":      true,
}

const sampleEvery = 10

// SamplingLogger creates a request logger that samples polling endpoints
func SamplingLogger() fiber.Handler {
	return samplingLogger(os.Stdout, isatty.IsTerminal(os.Stdout.Fd()))
}

func samplingLogger(out io.Writer, tty bool) fiber.Handler {
	var counterMu sync.Mutex
	counters := make(map[string]uint64)

	enableColors := tty && os.Getenv("NO_COLOR") != "1" && os.Getenv("TERM") != "dumb"

	defaultLogger := logger.New(logger.Config{
		Format:        "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${error}\n",
		Output:        out,
		DisableColors: !enableColors,
	})

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodGet || !pollPaths[c.Path()] {
			return defaultLogger(c)
		}

		path := c.Path()
		counterMu.Lock()
		counters[path]++
		currentCount := counters[path]
		if currentCount >= sampleEvery {
			counters[path] = 0
		}
		counterMu.Unlock()

		if currentCount < sampleEvery {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()
		duration := time.Since(start)

		status := c.Response().StatusCode()
		method := c.Method()

		statusColor := getStatusColor(status, enableColors)
		methodColor := getMethodColor(method, enableColors)
		resetColor := ""
		if enableColors {
			resetColor = cReset
		}

		// Same layout as the default logger line.
		fmt.Fprintf(out, "%s | %s%d%s | %13s | %s | %s%s%s | %s | - [sampled: %d calls]\n",
			time.Now().Format("15:04:05"),
			statusColor,
			status,
			resetColor,
			duration,
			c.IP(),
			methodColor,
			method,
			resetColor,
			path,
			currentCount)

		return err
	}
}
