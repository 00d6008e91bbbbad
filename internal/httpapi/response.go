package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kattabharath12/tax-1040/internal/common"
)

// Response is the envelope of every JSON reply. Code 0 means success.
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}

// ErrorData is the payload of a failed call.
type ErrorData struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

var httpStatuses = map[string]int{
	common.CodeAuthorization:     http.StatusUnauthorized,
	common.CodeNotFound:          http.StatusNotFound,
	common.CodeConfiguration:     http.StatusServiceUnavailable,
	common.CodeAlreadyProcessing: http.StatusConflict,
	common.CodeInvalidArgument:   http.StatusBadRequest,
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Msg: "success", Data: data})
}

// fail writes err as a structured error. Causes are never echoed back.
func fail(c *gin.Context, err error) {
	var appErr *common.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, Response{Code: http.StatusInternalServerError, Msg: "internal error",
			Data: ErrorData{Error: "INTERNAL"}})
		return
	}
	st, ok := httpStatuses[appErr.Code]
	if !ok {
		st = http.StatusInternalServerError
	}
	c.JSON(st, Response{Code: st, Msg: appErr.Message, Data: ErrorData{Error: appErr.Code, Details: appErr.Message}})
}
