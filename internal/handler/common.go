package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/pool-reservation/internal/apperr"
	"github.com/iliyamo/pool-reservation/internal/model"
)

// Clock returns the current instant in the facility timezone.
type Clock func() time.Time

var validate = validator.New()

// bind decodes the body into dst and runs its validate tags.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apperr.New(apperr.Validation, "invalid body")
	}
	if err := validate.Struct(dst); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) && len(ve) > 0 {
			fields := make([]string, 0, len(ve))
			for _, fe := range ve {
				fields = append(fields, fe.Field()+" "+fe.Tag())
			}
			return apperr.New(apperr.Validation, "invalid fields: "+strings.Join(fields, ", "))
		}
		return apperr.New(apperr.Validation, err.Error())
	}
	return nil
}

var statusByCode = map[apperr.Code]int{
	apperr.Validation:        http.StatusBadRequest,
	apperr.ClosedDay:         http.StatusBadRequest,
	apperr.PastClosing:       http.StatusBadRequest,
	apperr.PrivilegedHour:    http.StatusBadRequest,
	apperr.FutureCheckIn:     http.StatusBadRequest,
	apperr.OverCapacity:      http.StatusConflict,
	apperr.DuplicateCheckIn:  http.StatusConflict,
	apperr.CheckInMissing:    http.StatusConflict,
	apperr.AlreadyCheckedOut: http.StatusConflict,
	apperr.Cancelled:         http.StatusConflict,
	apperr.NotFound:          http.StatusNotFound,
	apperr.Unauthorized:      http.StatusUnauthorized,
	apperr.Forbidden:         http.StatusForbidden,
	apperr.StorageError:      http.StatusInternalServerError,
}

// fail renders err as {"error": CODE, "message": ...}. OVER_CAPACITY also
// carries hour and remaining.
func fail(c echo.Context, err error) error {
	var ae *apperr.AppError
	if !errors.As(err, &ae) {
		log.Error().Err(err).Str("component", "http").Str("path", c.Path()).Msg("unexpected error")
		ae = apperr.Storage(err)
	}
	status, ok := statusByCode[ae.Code]
	if !ok {
		status = http.StatusInternalServerError
	}
	body := echo.Map{"error": ae.Code, "message": ae.Message}
	if ae.Code == apperr.StorageError {
		body["message"] = "storage unavailable"
	}
	if ae.Hour != nil {
		body["hour"] = *ae.Hour
	}
	if ae.Remaining != nil {
		body["remaining"] = *ae.Remaining
	}
	return c.JSON(status, body)
}

// dateParam parses a YYYY-MM-DD query parameter in the clock's location,
// falling back to today when it is empty.
func dateParam(c echo.Context, name string, now time.Time) (time.Time, error) {
	s := strings.TrimSpace(c.QueryParam(name))
	if s == "" {
		return model.DateOf(now), nil
	}
	d, err := model.ParseDate(s, now.Location())
	if err != nil {
		return time.Time{}, apperr.New(apperr.Validation, name+" must be YYYY-MM-DD")
	}
	return d, nil
}

// requiredDate is dateParam without the fallback.
func requiredDate(c echo.Context, name string, now time.Time) (time.Time, error) {
	if strings.TrimSpace(c.QueryParam(name)) == "" {
		return time.Time{}, apperr.New(apperr.Validation, name+" is required")
	}
	return dateParam(c, name, now)
}
