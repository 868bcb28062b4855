// Package httpapi exposes the annotation backend over HTTP/JSON: a login
// endpoint and the /v1/annotations surface the sync client replays its
// offline queue against.
package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"

	"github.com/versemark/versemark/internal/common"
	"github.com/versemark/versemark/internal/models"
	"github.com/versemark/versemark/internal/server/auth"
	"github.com/versemark/versemark/internal/server/services"
)

// API carries the handlers' dependencies.
type API struct {
	users       *services.UserService
	annotations *services.AnnotationService
	tokens      *auth.Manager
}

func New(users *services.UserService, annotations *services.AnnotationService, tokens *auth.Manager) *API {
	return &API{users: users, annotations: annotations, tokens: tokens}
}

// NewEcho builds a fully routed echo instance.
func (a *API) NewEcho(log *slog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(slogecho.New(log))
	e.Use(middleware.Recover())

	e.GET("/healthz", a.healthz)
	e.POST("/v1/register", a.register)
	e.POST("/v1/login", a.login)

	v1 := e.Group("/v1/annotations", a.tokens.Middleware())
	v1.POST("", a.create)
	v1.GET("", a.listChapter)
	v1.PUT("/:id", a.update)
	v1.DELETE("/:id", a.softDelete)
	v1.PUT("/:id/refs", a.replaceRefs)

	return e
}

func (a *API) healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) register(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	user, err := a.users.Register(c.Request().Context(), creds.Username, creds.Password)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	return c.JSON(http.StatusCreated, map[string]string{"id": user.ID, "username": user.Username})
}

func (a *API) login(c echo.Context) error {
	var creds credentials
	if err := c.Bind(&creds); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	token, err := a.users.Login(c.Request().Context(), creds.Username, creds.Password)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		}
		return err
	}

	return c.JSON(http.StatusOK, map[string]string{"token": token})
}

func (a *API) create(c echo.Context) error {
	var rec models.AnnotationRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	stored, err := a.annotations.Create(c.Request().Context(), auth.UserID(c), &rec)
	if err != nil {
		return annotationError(err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"id":         stored.ID,
		"created_at": stored.CreatedAt,
		"updated_at": stored.UpdatedAt,
	})
}

func (a *API) update(c echo.Context) error {
	var rec models.AnnotationRecord
	if err := c.Bind(&rec); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	stored, err := a.annotations.Update(c.Request().Context(), auth.UserID(c), c.Param("id"), &rec)
	if err != nil {
		return annotationError(err)
	}

	return c.JSON(http.StatusOK, map[string]any{"updated_at": stored.UpdatedAt})
}

func (a *API) softDelete(c echo.Context) error {
	if err := a.annotations.Delete(c.Request().Context(), auth.UserID(c), c.Param("id")); err != nil {
		return annotationError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *API) replaceRefs(c echo.Context) error {
	var refs []models.CrossReference
	if err := c.Bind(&refs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	if err := a.annotations.ReplaceCrossReferences(c.Request().Context(), auth.UserID(c), c.Param("id"), refs); err != nil {
		return annotationError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (a *API) listChapter(c echo.Context) error {
	chapter, err := strconv.Atoi(c.QueryParam("chapter"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid chapter")
	}

	records, err := a.annotations.ListChapter(c.Request().Context(),
		auth.UserID(c), c.QueryParam("translation"), c.QueryParam("book"), chapter)
	if err != nil {
		return annotationError(err)
	}
	if records == nil {
		records = []models.AnnotationRecord{}
	}

	return c.JSON(http.StatusOK, map[string]any{"annotations": records})
}

// annotationError maps service errors to HTTP status codes. Validation
// failures are 422 so the client treats them as terminal rather than
// retrying forever.
func annotationError(err error) error {
	switch {
	case errors.Is(err, common.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "annotation not found")
	case errors.Is(err, common.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrValidation):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	default:
		return err
	}
}
