package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/corazawaf/libinjection-go"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/floatchat/backend/pkg/logger"
)

var xssPattern = regexp.MustCompile(`(?i)(<script|<iframe|javascript:|onerror=|onload=|onclick=)`)

type Config struct {
	MaxQueryLength      int
	AllowedContentTypes []string
	// QueryPaths are the POST routes whose body carries a question.
	QueryPaths []string
	// LocalsKey receives the sanitized question for the handler.
	LocalsKey string
	Logger    *zap.Logger
}

// Middleware checks question bodies before they reach the engine. Questions
// are never executed as SQL, so injection-looking text is logged rather
// than rejected: "select salinity data" is an ordinary question.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxQueryLength == 0 {
		cfg.MaxQueryLength = 5000
	}
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json"}
	}
	if len(cfg.QueryPaths) == 0 {
		cfg.QueryPaths = []string{"/api/v1/query"}
	}
	if cfg.LocalsKey == "" {
		cfg.LocalsKey = "query_text"
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Named("validation")
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost || !matches(c.Path(), cfg.QueryPaths) {
			return c.Next()
		}

		contentType := c.Get(fiber.HeaderContentType)
		if contentType != "" && !allowedType(contentType, cfg.AllowedContentTypes) {
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported content type",
			})
		}

		var req struct {
			Query *string `json:"query"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		if req.Query == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Query is required and must be a string",
			})
		}

		query := sanitizeString(*req.Query)
		if query == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Query is required and must be a string",
			})
		}

		if utf8.RuneCountInString(query) > cfg.MaxQueryLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Query exceeds maximum length",
			})
		}

		if containsXSS(query) {
			cfg.Logger.Warn("Potential XSS attempt",
				zap.String("ip", c.IP()),
				zap.String("query", query),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid query content",
			})
		}

		if isSQLi, fingerprint := libinjection.IsSQLi(query); isSQLi {
			cfg.Logger.Warn("Question resembles SQL injection",
				zap.String("ip", c.IP()),
				zap.String("fingerprint", fingerprint),
				zap.String("query", query),
			)
		}

		c.Locals(cfg.LocalsKey, query)
		return c.Next()
	}
}

func matches(path string, paths []string) bool {
	for _, p := range paths {
		if path == p {
			return true
		}
	}
	return false
}

func allowedType(contentType string, allowed []string) bool {
	for _, t := range allowed {
		if strings.Contains(contentType, t) {
			return true
		}
	}
	return false
}

func containsXSS(input string) bool {
	return xssPattern.MatchString(input)
}

func sanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimSpace(input)
}
