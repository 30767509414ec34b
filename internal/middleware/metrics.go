package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"handover-launcher/services"
)

/**
 * HTTP请求统计中间件
 * @param {*services.Metrics} m - Collector receiving one observation per request
 * @description
 * - 统计HTTP服务器收到的请求数量和处理时间
 * - 状态码 >= 400 计为错误请求
 * - Unknown routes are recorded as "unknown" to keep label cardinality bounded
 */
func MetricsMiddleware(m *services.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unknown"
		}
		m.ObserveRequest(path, time.Since(start), c.Writer.Status())
	}
}
