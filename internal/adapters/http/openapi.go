package httpadapter

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
)

//go:embed openapi.yaml
var openAPISpec []byte

var (
	pathParamPattern = regexp.MustCompile(`\{([^}]+)\}`)
	loadSpec         = sync.OnceValues(loadOpenAPI)
)

// requestValidator checks requests against the embedded OpenAPI document.
// Routes are resolved by the mux, so lookups go by the registered pattern.
type requestValidator struct {
	doc *openapi3.T
}

func loadOpenAPI() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(openAPISpec)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}

func newRequestValidator() (*requestValidator, error) {
	doc, err := loadSpec()
	if err != nil {
		return nil, err
	}
	return &requestValidator{doc: doc}, nil
}

// wrap validates requests for one "METHOD /path/{param}" mux pattern.
// Patterns the document does not describe pass through untouched.
func (v *requestValidator) wrap(pattern string, next http.HandlerFunc) http.HandlerFunc {
	method, path, ok := strings.Cut(pattern, " ")
	if v == nil || !ok {
		return next
	}
	pathItem := v.doc.Paths.Find(path)
	if pathItem == nil {
		return next
	}
	operation := pathItem.GetOperation(method)
	if operation == nil {
		return next
	}

	route := &routers.Route{
		Spec:      v.doc,
		Path:      path,
		PathItem:  pathItem,
		Method:    method,
		Operation: operation,
	}
	var paramNames []string
	for _, m := range pathParamPattern.FindAllStringSubmatch(path, -1) {
		paramNames = append(paramNames, m[1])
	}

	return func(w http.ResponseWriter, r *http.Request) {
		params := make(map[string]string, len(paramNames))
		for _, name := range paramNames {
			params[name] = r.PathValue(name)
		}
		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: params,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
			},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			writeError(w, http.StatusBadRequest, validationMessage(err))
			return
		}
		next(w, r)
	}
}

func validationMessage(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		switch {
		case reqErr.Parameter != nil:
			return fmt.Sprintf("invalid parameter %q: %s", reqErr.Parameter.Name, reasonOf(reqErr))
		case reqErr.RequestBody != nil:
			return "invalid request body: " + reasonOf(reqErr)
		}
	}
	if errors.Is(err, context.Canceled) {
		return "request canceled"
	}
	return "invalid request: " + err.Error()
}

func reasonOf(reqErr *openapi3filter.RequestError) string {
	if reqErr.Err != nil {
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			return schemaErr.Reason
		}
		return reqErr.Err.Error()
	}
	return reqErr.Reason
}
