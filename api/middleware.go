package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/labstack/echo/v4"
)

// decodeCommandBody unwraps gzip command batches. Any other content encoding
// is refused with 415.
func decodeCommandBody(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		enc := strings.ToLower(strings.TrimSpace(req.Header.Get(echo.HeaderContentEncoding)))
		switch enc {
		case "", "identity":
			return next(c)
		case "gzip":
		default:
			return c.String(http.StatusUnsupportedMediaType, "unsupported content encoding "+enc)
		}

		zr, err := gzip.NewReader(req.Body)
		if err != nil {
			return c.String(http.StatusBadRequest, "invalid gzip body")
		}
		defer zr.Close()

		// The server closes the original body once the handler returns.
		req.Body = io.NopCloser(zr)
		req.ContentLength = -1
		req.Header.Del(echo.HeaderContentEncoding)
		return next(c)
	}
}
