package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jsamuelsen/cardsdk/internal/adapters/http/dto"
)

// Body formats a scenario can answer with.
const (
	FormatJSONAPI = "jsonapi"
	FormatLaravel = "laravel"
	FormatPlain   = "plain"
	FormatEmpty   = "empty"
	FormatHTML    = "html"
)

// DefaultRateLimit is the X-RateLimit-Limit sent with 429 scenarios.
const DefaultRateLimit = 60

// maxScenarioDelay caps ?delay=.
const maxScenarioDelay = 30 * time.Second

// ScenarioHandler answers GET /v1/_errors/:status with a chosen failure
// so client error handling can be exercised end to end.
//
// Query parameters:
//   - format: jsonapi (default), laravel, plain, empty or html
//   - message: the message or detail to send
//   - code: the JSON:API error code
//   - delay: a duration to wait first, cut short by the request deadline
//   - retry_after: seconds for Retry-After on 429 and 503
type ScenarioHandler struct {
	served *prometheus.CounterVec
}

// NewScenarioHandler creates the handler, registering its counter with reg.
func NewScenarioHandler(reg prometheus.Registerer) *ScenarioHandler {
	return &ScenarioHandler{
		served: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: "catalog_stub",
			Name:      "scenarios_served_total",
			Help:      "Error scenarios served, by status and body format.",
		}, []string{"status", "format"}),
	}
}

// Serve handles the scenario route.
func (h *ScenarioHandler) Serve(c *gin.Context) {
	status, err := strconv.Atoi(c.Param("status"))
	if err != nil || status < 400 || status > 599 {
		writeProblem(c, http.StatusBadRequest, "invalid_status", "Status must be between 400 and 599.", "status")
		return
	}

	format := c.DefaultQuery("format", FormatJSONAPI)

	if raw := c.Query("delay"); raw != "" {
		delay, err := time.ParseDuration(raw)
		if err != nil || delay < 0 {
			writeProblem(c, http.StatusBadRequest, "invalid_delay", "Delay must be a non-negative duration.", "delay")
			return
		}

		timer := time.NewTimer(min(delay, maxScenarioDelay))
		defer timer.Stop()

		select {
		case <-timer.C:
		case <-c.Request.Context().Done():
			h.served.WithLabelValues(strconv.Itoa(http.StatusGatewayTimeout), FormatJSONAPI).Inc()
			writeProblem(c, http.StatusGatewayTimeout, "timeout", "The request deadline passed.", "")

			return
		}
	}

	message := c.Query("message")
	if message == "" {
		message = defaultScenarioMessage(status)
	}

	if status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable {
		retry := 1
		if n, err := strconv.Atoi(c.Query("retry_after")); err == nil && n >= 0 {
			retry = n
		}

		c.Header("Retry-After", strconv.Itoa(retry))

		if status == http.StatusTooManyRequests {
			c.Header("X-RateLimit-Limit", strconv.Itoa(DefaultRateLimit))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(retry)*time.Second).Unix(), 10))
		}
	}

	switch format {
	case FormatLaravel:
		var fields map[string][]string
		if status == http.StatusUnprocessableEntity {
			fields = map[string][]string{"name": {"The name field is required."}}
		}

		writeLaravel(c, status, message, fields)
	case FormatPlain:
		c.String(status, message)
	case FormatEmpty:
		c.Status(status)
	case FormatHTML:
		c.Data(status, "text/html; charset=utf-8",
			fmt.Appendf(nil, "<!DOCTYPE html><html><head><title>%d</title></head><body><h1>%s</h1></body></html>",
				status, http.StatusText(status)))
	case FormatJSONAPI:
		writeProblem(c, status, c.Query("code"), message, "")
	default:
		writeProblem(c, http.StatusBadRequest, "invalid_format", "Unknown format "+strconv.Quote(format)+".", "format")
		return
	}

	h.served.WithLabelValues(strconv.Itoa(status), format).Inc()
}

func defaultScenarioMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return dto.MessageUnauthenticated
	case http.StatusForbidden:
		return dto.MessageUnauthorized
	case http.StatusUnprocessableEntity:
		return dto.MessageValidation
	case http.StatusTooManyRequests:
		return dto.MessageTooManyRequests
	case http.StatusInternalServerError:
		return dto.MessageServerError
	default:
		return http.StatusText(status)
	}
}
