package handlers

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplingLoggerSamplesPolling(t *testing.T) {
	var out bytes.Buffer
	app := fiber.New()
	app.Use(samplingLogger(&out, false))
	app.Get("/v1/sessions", func(c *fiber.Ctx) error { return c.SendString("[]") })
	app.Post("/v1/sessions", func(c *fiber.Ctx) error { return c.SendStatus(201) })

	for i := 0; i < sampleEvery*2; i++ {
		_, err := app.Test(httptest.NewRequest("GET", "/v1/sessions", nil))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, strings.Count(out.String(), "[sampled: 10 calls]"))
	assert.NotContains(t, out.String(), "\u001b[")

	out.Reset()
	_, err := app.Test(httptest.NewRequest("POST", "/v1/sessions", nil))
	require.NoError(t, err)
	assert.Contains(t, out.String(), "POST")
	assert.Contains(t, out.String(), "201")
}

func TestLogColors(t *testing.T) {
	assert.Equal(t, cGreen, getStatusColor(204, true))
	assert.Equal(t, cYellow, getStatusColor(404, true))
	assert.Equal(t, cRed, getStatusColor(500, true))
	assert.Empty(t, getStatusColor(500, false))
	assert.Equal(t, cRed, getMethodColor("DELETE", true))
}
