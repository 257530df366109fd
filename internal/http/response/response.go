package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openacademy/trilhas-backend/internal/data/repos"
	domainagg "github.com/openacademy/trilhas-backend/internal/domain/aggregates"
	"github.com/openacademy/trilhas-backend/internal/platform/apierr"
)

// ErrorBody is the JSON shape of every failed request.
type ErrorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg, Code: code})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}

// Fail writes err with the status its kind maps to.
func Fail(c *gin.Context, err error) {
	status, code, msg := Classify(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorBody{Error: msg, Code: code})
}

// Classify maps an error from any layer to status, machine code and user message.
// Internal details are hidden in release mode.
func Classify(err error) (int, string, string) {
	if ae, ok := apierr.As(err); ok {
		status := ae.Status
		if status == 0 {
			status = http.StatusInternalServerError
		}
		return status, ae.Code, ae.Error()
	}
	if code := domainagg.CodeOf(err); code != "" {
		msg := domainagg.MessageOf(err)
		switch code {
		case domainagg.CodeValidation:
			return http.StatusBadRequest, string(code), msg
		case domainagg.CodeNotFound:
			return http.StatusNotFound, string(code), msg
		case domainagg.CodeConflict, domainagg.CodeInvalidTransition:
			return http.StatusConflict, string(code), msg
		case domainagg.CodeCapacityExceeded:
			return http.StatusConflict, "turma_full", msg
		case domainagg.CodePreconditionFailed:
			return http.StatusUnprocessableEntity, string(code), msg
		case domainagg.CodeRetryable:
			return http.StatusServiceUnavailable, string(code), "Serviço ocupado, tente novamente"
		}
		return http.StatusInternalServerError, "internal", internalMessage(err)
	}
	if errors.Is(err, repos.ErrInvalidInput) {
		return http.StatusBadRequest, "invalid_input", err.Error()
	}
	return http.StatusInternalServerError, "internal", internalMessage(err)
}

func internalMessage(err error) string {
	if gin.Mode() == gin.ReleaseMode || err == nil {
		return "internal server error"
	}
	return err.Error()
}
