package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// robotsTxt is served byte-for-byte, trailing indentation included.
const robotsTxt = "User-agent: *\nDisallow: /\n    "

// Robots disallows all crawling without contacting any origin.
func Robots(c echo.Context) error {
	return c.Blob(http.StatusOK, "text/plain", []byte(robotsTxt))
}
