package parser

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/tandt53/apilot/internal/models"
)

// CurlParser converts a single curl command into a one-endpoint import. The
// resulting endpoint is metadata-poor on purpose; the smart-defaults
// enricher fills the gaps downstream.
type CurlParser struct{}

// NewCurlParser creates a new curl command parser
func NewCurlParser() *CurlParser {
	return &CurlParser{}
}

// curl flags that take no argument and can be skipped outright
var curlBoolFlags = map[string]bool{
	"-s": true, "--silent": true,
	"-k": true, "--insecure": true,
	"-L": true, "--location": true,
	"-v": true, "--verbose": true,
	"-i": true, "--include": true,
	"-f": true, "--fail": true,
	"-G": true, "--get": true,
	"--compressed": true,
}

// Parse parses a curl command line
func (p *CurlParser) Parse(content string) (*ParseResult, error) {
	tokens, err := tokenizeCommand(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse curl command: %w", err)
	}
	if len(tokens) == 0 || tokens[0] != "curl" {
		return nil, fmt.Errorf("not a curl command")
	}

	var method, rawURL, body, basicUser string
	headers := make([]models.Parameter, 0)
	authHeader := ""

	next := func(i *int) string {
		*i++
		if *i >= len(tokens) {
			return ""
		}
		return tokens[*i]
	}

	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]
		switch {
		case tok == "-X" || tok == "--request":
			method = strings.ToUpper(next(&i))
		case tok == "-H" || tok == "--header":
			name, value, _ := strings.Cut(next(&i), ":")
			name = strings.TrimSpace(name)
			value = strings.TrimSpace(value)
			if strings.EqualFold(name, "Authorization") {
				authHeader = value
			}
			headers = append(headers, models.Parameter{
				Name:    name,
				In:      models.InHeader,
				Type:    "string",
				Example: value,
			})
		case tok == "-d" || strings.HasPrefix(tok, "--data"):
			body = next(&i)
		case tok == "-u" || tok == "--user":
			basicUser = next(&i)
		case tok == "--url":
			rawURL = next(&i)
		case tok == "-F" || tok == "--form":
			next(&i) // form fields are not modeled
		case curlBoolFlags[tok]:
			// no argument
		case strings.HasPrefix(tok, "-"):
			// unknown flag: assume it takes an argument
			next(&i)
		case rawURL == "":
			rawURL = tok
		}
	}

	if rawURL == "" {
		return nil, fmt.Errorf("curl command has no URL")
	}
	if method == "" {
		if body != "" {
			method = "POST"
		} else {
			method = "GET"
		}
	}

	host, path, query := splitCurlURL(rawURL)
	if path == "" {
		path = "/"
	}

	now := time.Now()
	spec := newSpec(FormatCurl, content)
	spec.Name = host
	if spec.Name == "" {
		spec.Name = "curl import"
	}

	e := &models.Endpoint{
		ID:          uuid.New().String(),
		SpecID:      spec.ID,
		Method:      method,
		Path:        path,
		OperationID: fmt.Sprintf("%s_%s", strings.ToLower(method), sanitizePath(path)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	e.Request.Parameters = append(query, filterContentType(headers, &e.Request.ContentType)...)

	if body != "" && gjson.Valid(body) {
		e.Request.Body = fieldsFromJSON(gjson.Parse(body))
		if e.Request.ContentType == "" {
			e.Request.ContentType = "application/json"
		}
	}

	e.Auth = curlAuth(authHeader, basicUser)

	return &ParseResult{Spec: spec, Endpoints: []*models.Endpoint{e}}, nil
}

// filterContentType strips the Content-Type header out of the parameter
// list, recording its value instead.
func filterContentType(headers []models.Parameter, contentType *string) []models.Parameter {
	out := headers[:0]
	for _, h := range headers {
		if strings.EqualFold(h.Name, "Content-Type") {
			if s, ok := h.Example.(string); ok {
				*contentType = s
			}
			continue
		}
		out = append(out, h)
	}
	return out
}

func splitCurlURL(raw string) (host, path string, query []models.Parameter) {
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", raw, nil
	}

	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if decoded, err := url.QueryUnescape(value); err == nil {
			value = decoded
		}
		query = append(query, models.Parameter{
			Name:    key,
			In:      models.InQuery,
			Type:    "string",
			Example: value,
		})
	}

	return u.Hostname(), u.Path, query
}

func curlAuth(authHeader, basicUser string) *models.Auth {
	if basicUser != "" {
		return &models.Auth{Type: "http", Scheme: "basic"}
	}
	switch {
	case strings.HasPrefix(authHeader, "Bearer "):
		return &models.Auth{Type: "http", Scheme: "bearer"}
	case strings.HasPrefix(authHeader, "Basic "):
		return &models.Auth{Type: "http", Scheme: "basic"}
	case authHeader != "":
		return &models.Auth{Type: "apiKey", In: models.InHeader, Name: "Authorization"}
	}
	return nil
}

// tokenizeCommand splits a shell command into tokens, honoring single and
// double quotes and backslash line continuations.
func tokenizeCommand(s string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	var quote rune
	inToken := false
	escaped := false

	flush := func() {
		if inToken {
			tokens = append(tokens, current.String())
			current.Reset()
			inToken = false
		}
	}

	for _, r := range s {
		switch {
		case escaped:
			if r != '\n' {
				current.WriteRune(r)
				inToken = true
			}
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote = r
			inToken = true
		case unicode.IsSpace(r):
			flush()
		default:
			current.WriteRune(r)
			inToken = true
		}
	}

	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote")
	}
	if escaped {
		return nil, fmt.Errorf("trailing backslash")
	}
	flush()

	return tokens, nil
}
