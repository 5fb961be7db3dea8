package pactverify

import (
	"net/http"

	"github.com/form3tech-oss/pact-provider/internal/app/httpresponse"
	"github.com/form3tech-oss/pact-provider/internal/app/pact"
	"github.com/form3tech-oss/pact-provider/internal/app/provider"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const defaultMessageContentType = "application/json"

// MessageHandler serves the producers of the registry at POST /, for
// verifiers running in another process with a message producer URL.
func MessageHandler(registry *Registry) http.Handler {
	e := newServer()
	e.POST("/", func(c echo.Context) error {
		var req provider.ProduceMessageRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse message request: %s", err.Error()))
		}
		if req.Description == "" {
			return c.JSON(http.StatusBadRequest, httpresponse.Error("a message description is required"))
		}

		produced, err := registry.Produce(c.Request().Context(), pact.Message{
			Description:    req.Description,
			ProviderStates: req.ProviderStates,
		})
		if err != nil {
			return c.JSON(statusFor(err), httpresponse.Errorf("unable to produce message [%s]: %s", req.Description, err.Error()))
		}

		contentType := produced.MetaData["contentType"]
		if contentType == "" {
			contentType = defaultMessageContentType
		}
		return c.Blob(http.StatusOK, contentType, produced.Contents)
	})
	return e
}

// StateChangeHandler sets up the provider states of the registry at POST /,
// for verifiers running in another process with a provider states setup URL.
func StateChangeHandler(registry *Registry) http.Handler {
	e := newServer()
	e.POST("/", func(c echo.Context) error {
		var req provider.StateChangeRequest
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, httpresponse.Errorf("unable to parse state change request: %s", err.Error()))
		}
		if req.State == "" {
			return c.JSON(http.StatusBadRequest, httpresponse.Error("a state name is required"))
		}
		if req.Action != "" && req.Action != "setup" {
			return c.NoContent(http.StatusOK)
		}

		err := registry.SetUp(c.Request().Context(), pact.ProviderState{Name: req.State, Parameters: req.Params})
		if err != nil {
			return c.JSON(statusFor(err), httpresponse.Errorf("unable to set up state [%s]: %s", req.State, err.Error()))
		}
		return c.NoContent(http.StatusOK)
	})
	return e
}

func newServer() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	return e
}

func statusFor(err error) int {
	var notFound *provider.HandlerNotFoundError
	if errors.As(err, &notFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}
