// Package handler: HTTP-обработчики gin поверх фасада ресурсов.
package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/complaint-service/internal/apierr"
	"github.com/psds-microservice/complaint-service/internal/errs"
)

func parseID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierr.Respond(c, errs.Invalid(name, "invalid id"))
		return 0, false
	}
	return id, true
}

// bindJSON разбирает тело. Пустое тело — пустой объект.
func bindJSON(c *gin.Context, dst interface{}) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	if errors.Is(err, errs.ErrValidation) {
		apierr.Respond(c, err)
		return false
	}
	apierr.Abort(c, http.StatusBadRequest, apierr.CodeValidationError, "invalid body")
	return false
}

func queryInt(c *gin.Context, name string) (int, bool) {
	v := c.Query(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		apierr.Respond(c, errs.Invalid(name, "must be an integer"))
		return 0, false
	}
	return n, true
}
