package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"strings"
)

var ErrEmptyRequestBody = errors.New("request body is missing or null")

type ContextKey string

const (
	RequestIDPrefix         string     = "r"
	RequestIDContextKey     ContextKey = "request.id"
	RequestNumberContextKey ContextKey = "request.number"
	AuthSubjectContextKey   ContextKey = "auth.subject"

	// maxBookRequestBodySize bounds the size of a book payload.
	maxBookRequestBodySize = 1 << 20
)

// GetValueFromContext returns the value of a given key in the context
// if this key is not available, it returns an empty string.
func GetValueFromContext(ctx context.Context, contextKey ContextKey) string {
	if val, ok := ctx.Value(contextKey).(string); ok {
		return val
	}
	return ""
}

// GetRequestNumberFromContext returns the request number set in
// the context. if not previously set then it returns 0.
func GetRequestNumberFromContext(ctx context.Context) uint64 {
	if val, ok := ctx.Value(RequestNumberContextKey).(uint64); ok {
		return val
	}
	return 0
}

// DecodeBookRequestBody reads the book sent on creation or update. An empty
// body or a json `null` gives ErrEmptyRequestBody so that callers can reject
// it before touching the storage.
func DecodeBookRequestBody(w http.ResponseWriter, r *http.Request) (*Book, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, ErrEmptyRequestBody
	}
	var book *Book
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBookRequestBodySize)).Decode(&book)
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyRequestBody
	}
	if err != nil {
		return nil, err
	}
	if book == nil {
		return nil, ErrEmptyRequestBody
	}
	return book, nil
}

// GetRequestSourceIP helps find the source IP of the caller.
func GetRequestSourceIP(r *http.Request) string {
	// Get IP from the X-REAL-IP header
	ip := r.Header.Get("X-REAL-IP")
	netIP := net.ParseIP(ip)
	if netIP != nil {
		return ip
	}

	// Get IP from X-FORWARDED-FOR header
	ips := r.Header.Get("X-FORWARDED-FOR")
	for _, ip := range strings.Split(ips, ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}

	// Get IP from RemoteAddr
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return ""
	}
	if net.ParseIP(ip) != nil {
		return ip
	}
	return ""
}

// IsAppRunningInDocker checks the existence of the .dockerenv
// file at the root directory and returns a boolean result.
func IsAppRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}
