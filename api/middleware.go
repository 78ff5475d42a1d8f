package api

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const requestIDKey = "request_id"

// requestIDMiddleware adds a unique request ID to each request
func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set(requestIDKey, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// loggingMiddleware provides structured request logging
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output: io.Discard,
		Formatter: func(param gin.LogFormatterParams) string {
			s.logger.Info("HTTP Request", map[string]interface{}{
				"method":      param.Method,
				"path":        param.Path,
				"status_code": param.StatusCode,
				"latency":     param.Latency.String(),
				"client_ip":   param.ClientIP,
				"user_agent":  param.Request.UserAgent(),
				"request_id":  param.Keys[requestIDKey],
			})
			return ""
		},
	})
}

// accessLogMiddleware writes one line per request in the
// "[time] METHOD URL STATUS SIZE - LATENCY ms" format
func accessLogMiddleware(w io.Writer) gin.HandlerFunc {
	return gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    w,
		Formatter: accessLogLine,
	})
}

func accessLogLine(param gin.LogFormatterParams) string {
	size := "-"
	if param.BodySize >= 0 {
		size = strconv.Itoa(param.BodySize)
	}
	return fmt.Sprintf("[%s] %s %s %d %s - %.3f ms\n",
		param.TimeStamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		param.Method,
		param.Path,
		param.StatusCode,
		size,
		float64(param.Latency)/float64(time.Millisecond),
	)
}

// metricsMiddleware collects request metrics
func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		labels := map[string]string{
			"method": c.Request.Method,
			"route":  route,
			"status": strconv.Itoa(c.Writer.Status()),
		}
		s.metrics.Counter("http_requests_total", 1, labels)
		s.metrics.Timer("http_request_duration", float64(time.Since(start))/float64(time.Millisecond), map[string]string{
			"method": c.Request.Method,
			"route":  route,
		})
	}
}
