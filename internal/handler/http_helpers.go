package handler

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

var digitsPattern = regexp.MustCompile(`^[0-9]+$`)

func parseUintParam(c *gin.Context, key string) (uint, error) {
	raw := c.Param(key)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return uint(id), nil
}

// parseUintSlice returns the parsed ids and the first value that is not an id.
func parseUintSlice(values []string) ([]uint, string) {
	ids := make([]uint, 0, len(values))
	for _, raw := range values {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		parsed, err := strconv.ParseUint(trimmed, 10, 32)
		if err != nil {
			return ids, trimmed
		}
		ids = append(ids, uint(parsed))
	}
	return ids, ""
}

// parseBoundedInt accepts only plain digit strings within [1, max].
func parseBoundedInt(raw string, max int) (int, bool) {
	if !digitsPattern.MatchString(raw) {
		return 0, false
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 || value > max {
		return 0, false
	}
	return value, true
}

// safeNext keeps redirects on this host.
func safeNext(raw, fallback string) string {
	next := strings.TrimSpace(raw)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	if parsed, err := url.Parse(next); err != nil || parsed.IsAbs() || parsed.Host != "" {
		return fallback
	}
	return next
}

func loginURL(next string) string {
	return "/admin/login/?next=" + url.QueryEscape(next)
}
