package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/tandt53/apilot/internal/models"
)

// PostmanParser converts Postman v2.x collections into the canonical
// endpoint model. It walks the item tree with gjson instead of binding the
// whole collection schema, so unknown collection fields never break imports.
type PostmanParser struct{}

// NewPostmanParser creates a new Postman collection parser
func NewPostmanParser() *PostmanParser {
	return &PostmanParser{}
}

// Parse parses a Postman collection export
func (p *PostmanParser) Parse(content string) (*ParseResult, error) {
	if !gjson.Valid(content) {
		return nil, fmt.Errorf("collection is not valid JSON")
	}

	root := gjson.Parse(content)
	info := root.Get("info")
	if !info.Exists() {
		return nil, fmt.Errorf("not a Postman collection: missing info block")
	}

	spec := newSpec(FormatPostman, content)
	spec.Name = info.Get("name").String()
	spec.Description = postmanDescription(info.Get("description"))
	spec.Version = info.Get("version.string").String()
	if spec.Version == "" {
		spec.Version = info.Get("version").String()
	}

	endpoints := make([]*models.Endpoint, 0)
	p.walkItems(root.Get("item"), root.Get("auth"), spec.ID, &endpoints)

	return &ParseResult{Spec: spec, Endpoints: endpoints}, nil
}

// walkItems descends into folders; leaves with a request block become
// endpoints. Folder-level auth inherits downward unless a request overrides
// it.
func (p *PostmanParser) walkItems(items, inheritedAuth gjson.Result, specID string, out *[]*models.Endpoint) {
	items.ForEach(func(_, item gjson.Result) bool {
		auth := inheritedAuth
		if a := item.Get("auth"); a.Exists() {
			auth = a
		}

		if children := item.Get("item"); children.Exists() {
			p.walkItems(children, auth, specID, out)
			return true
		}

		req := item.Get("request")
		if !req.Exists() {
			return true
		}
		if e := buildPostmanEndpoint(item, req, auth, specID); e != nil {
			*out = append(*out, e)
		}
		return true
	})
}

func buildPostmanEndpoint(item, req, inheritedAuth gjson.Result, specID string) *models.Endpoint {
	path, query := postmanURL(req.Get("url"))
	if path == "" {
		return nil
	}

	method := strings.ToUpper(req.Get("method").String())
	if method == "" {
		method = "GET"
	}

	now := time.Now()
	e := &models.Endpoint{
		ID:          uuid.New().String(),
		SpecID:      specID,
		Method:      method,
		Path:        path,
		Name:        item.Get("name").String(),
		Description: postmanDescription(req.Get("description")),
		OperationID: fmt.Sprintf("%s_%s", strings.ToLower(method), sanitizePath(path)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	e.Request.Parameters = append(e.Request.Parameters, query...)
	e.Request.Parameters = append(e.Request.Parameters, postmanPathVariables(req.Get("url.variable"))...)

	contentType := ""
	req.Get("header").ForEach(func(_, h gjson.Result) bool {
		if h.Get("disabled").Bool() {
			return true
		}
		name := h.Get("key").String()
		if strings.EqualFold(name, "Content-Type") {
			contentType = h.Get("value").String()
			return true
		}
		e.Request.Parameters = append(e.Request.Parameters, models.Parameter{
			Name:        name,
			In:          models.InHeader,
			Type:        "string",
			Description: postmanDescription(h.Get("description")),
			Example:     h.Get("value").String(),
		})
		return true
	})

	if body := req.Get("body"); body.Exists() && body.Get("mode").String() == "raw" {
		raw := body.Get("raw").String()
		if gjson.Valid(raw) {
			e.Request.Body = fieldsFromJSON(gjson.Parse(raw))
			if contentType == "" {
				contentType = "application/json"
			}
		}
	}
	e.Request.ContentType = contentType

	auth := req.Get("auth")
	if !auth.Exists() {
		auth = inheritedAuth
	}
	e.Auth = postmanAuth(auth)

	return e
}

// postmanURL extracts the path template and query parameters. Postman's
// :param and {{param}} notations both normalize to {param}.
func postmanURL(url gjson.Result) (string, []models.Parameter) {
	var rawPath string
	var params []models.Parameter

	switch {
	case url.IsObject():
		segments := make([]string, 0)
		url.Get("path").ForEach(func(_, seg gjson.Result) bool {
			segments = append(segments, templatizeSegment(seg.String()))
			return true
		})
		rawPath = "/" + strings.Join(segments, "/")

		url.Get("query").ForEach(func(_, q gjson.Result) bool {
			if q.Get("disabled").Bool() {
				return true
			}
			params = append(params, models.Parameter{
				Name:        q.Get("key").String(),
				In:          models.InQuery,
				Type:        "string",
				Description: postmanDescription(q.Get("description")),
				Example:     q.Get("value").String(),
			})
			return true
		})

	case url.Type == gjson.String:
		rawPath, params = splitRawURL(url.String())

	default:
		return "", nil
	}

	if rawPath == "/" || rawPath == "" {
		return "", nil
	}
	return rawPath, params
}

// splitRawURL handles the string form of a request URL
func splitRawURL(raw string) (string, []models.Parameter) {
	if i := strings.Index(raw, "://"); i >= 0 {
		rest := raw[i+3:]
		if j := strings.Index(rest, "/"); j >= 0 {
			raw = rest[j:]
		} else {
			return "", nil
		}
	}

	var params []models.Parameter
	if i := strings.Index(raw, "?"); i >= 0 {
		for _, pair := range strings.Split(raw[i+1:], "&") {
			if pair == "" {
				continue
			}
			key, value, _ := strings.Cut(pair, "=")
			params = append(params, models.Parameter{
				Name:    key,
				In:      models.InQuery,
				Type:    "string",
				Example: value,
			})
		}
		raw = raw[:i]
	}

	segments := strings.Split(strings.TrimPrefix(raw, "/"), "/")
	for i, seg := range segments {
		segments[i] = templatizeSegment(seg)
	}
	return "/" + strings.Join(segments, "/"), params
}

func templatizeSegment(seg string) string {
	if strings.HasPrefix(seg, ":") && len(seg) > 1 {
		return "{" + seg[1:] + "}"
	}
	if strings.HasPrefix(seg, "{{") && strings.HasSuffix(seg, "}}") {
		return "{" + strings.Trim(seg, "{}") + "}"
	}
	return seg
}

func postmanPathVariables(variables gjson.Result) []models.Parameter {
	var params []models.Parameter
	variables.ForEach(func(_, v gjson.Result) bool {
		params = append(params, models.Parameter{
			Name:        v.Get("key").String(),
			In:          models.InPath,
			Type:        "string",
			Required:    true,
			Description: postmanDescription(v.Get("description")),
			Example:     v.Get("value").String(),
		})
		return true
	})
	return params
}

func postmanAuth(auth gjson.Result) *models.Auth {
	switch auth.Get("type").String() {
	case "bearer":
		return &models.Auth{Type: "http", Scheme: "bearer"}
	case "basic":
		return &models.Auth{Type: "http", Scheme: "basic"}
	case "apikey":
		out := &models.Auth{Type: "apiKey", In: models.InHeader}
		auth.Get("apikey").ForEach(func(_, kv gjson.Result) bool {
			switch kv.Get("key").String() {
			case "key":
				out.Name = kv.Get("value").String()
			case "in":
				if where := kv.Get("value").String(); where != "" {
					out.In = where
				}
			}
			return true
		})
		return out
	}
	return nil
}

// postmanDescription accepts both the string and the object form
func postmanDescription(desc gjson.Result) string {
	if desc.IsObject() {
		return desc.Get("content").String()
	}
	return desc.String()
}
