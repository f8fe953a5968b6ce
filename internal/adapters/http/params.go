package httpadapter

import (
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/kirillkom/hr-onboarding/internal/core/domain"
)

func pathParam(r *http.Request, name string) (string, error) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, r.PathValue(name), &value, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind path parameter", fmt.Errorf("%s: %w", name, err))
	}
	return value, nil
}

func queryParam(r *http.Request, name string) (string, error) {
	var value string
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), &value); err != nil {
		return "", domain.WrapError(domain.ErrInvalidInput, "bind query parameter", fmt.Errorf("%s: %w", name, err))
	}
	return value, nil
}
