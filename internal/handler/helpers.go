package handler

import (
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"boutique/internal/apierror"
	"boutique/internal/middleware"
	"boutique/internal/repository"
	"boutique/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

const dateLayout = "2006-01-02"

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
// An empty body binds as the zero request, so it fails the same way as {}.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, apierror.WithCode(apierror.CodeValidation, "invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// fail hands err to middleware.ErrorHandler.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func badParam(c *gin.Context, field, msg string) {
	c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{field: msg}))
}

// actorID is the authenticated user; JWTAuth already checked it parses.
func actorID(c *gin.Context) uuid.UUID {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return uuid.Nil
	}
	id, _ := claims.ActorID()
	return id
}

func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badParam(c, name, "must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

// ── Query parsing ────────────────────────────────────────────────────────────

// query collects the first parse error so handlers check once.
type query struct {
	c     *gin.Context
	field string
	msg   string
}

func newQuery(c *gin.Context) *query { return &query{c: c} }

func (q *query) fail(field, msg string) {
	if q.field == "" {
		q.field, q.msg = field, msg
	}
}

// ok writes the validation response for the first bad parameter.
func (q *query) ok() bool {
	if q.field == "" {
		return true
	}
	badParam(q.c, q.field, q.msg)
	return false
}

func (q *query) page() repository.Page {
	return repository.Page{Page: q.intOr("page", 1), Limit: q.intOr("limit", 0)}
}

func (q *query) intOr(key string, def int) int {
	v := q.c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		q.fail(key, "must be an integer")
		return def
	}
	return n
}

func (q *query) optInt(key string) *int {
	v := q.c.Query(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		q.fail(key, "must be a positive integer")
		return nil
	}
	return &n
}

func (q *query) optUUID(key string) *uuid.UUID {
	v := q.c.Query(key)
	if v == "" {
		return nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		q.fail(key, "must be a valid UUID")
		return nil
	}
	return &id
}

func (q *query) boolean(key string) bool {
	v := q.c.Query(key)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		q.fail(key, "must be true or false")
	}
	return b
}

// date parses YYYY-MM-DD as a UTC-midnight value, matching date columns.
func (q *query) date(key string) *time.Time {
	v := strings.TrimSpace(q.c.Query(key))
	if v == "" {
		return nil
	}
	t, err := time.ParseInLocation(dateLayout, v, time.UTC)
	if err != nil {
		q.fail(key, "must be YYYY-MM-DD")
		return nil
	}
	return &t
}

// dayRange turns from/to business dates into [start of from, start of day after to).
func (q *query) dayRange(cal service.Calendar) (*time.Time, *time.Time) {
	from, to := q.date("from"), q.date("to")
	var start, end *time.Time
	if from != nil {
		s := cal.DayStart(*from)
		start = &s
	}
	if to != nil {
		e := cal.DayStart(*to).AddDate(0, 0, 1)
		end = &e
	}
	return start, end
}
