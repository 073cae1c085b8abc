package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/deepakgunadhya/greenexweb-sub000/internal/ctxutil"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/middleware"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/service"
	"github.com/deepakgunadhya/greenexweb-sub000/internal/workflow"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	engine *service.Engine
	tokens *middleware.Tokens
}

func New(engine *service.Engine, tokens *middleware.Tokens) *Handler {
	return &Handler{engine: engine, tokens: tokens}
}

var statusByKind = map[workflow.Kind]int{
	workflow.KindNotFound:               http.StatusNotFound,
	workflow.KindForbidden:              http.StatusForbidden,
	workflow.KindValidationFailed:       http.StatusUnprocessableEntity,
	workflow.KindInvalidState:           http.StatusConflict,
	workflow.KindStaleSubmission:        http.StatusConflict,
	workflow.KindDuplicatePending:       http.StatusConflict,
	workflow.KindConcurrentModification: http.StatusConflict,
}

// StatusFor maps an engine error kind to its HTTP status.
func StatusFor(kind workflow.Kind) int {
	if s, ok := statusByKind[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// respondError writes err as a typed error body. Engine errors carry the
// current state so the caller can resynchronize.
func respondError(c *gin.Context, err error) {
	var werr *workflow.Error
	if errors.As(err, &werr) {
		body := gin.H{
			"error":     werr.Kind,
			"message":   werr.Message,
			"retryable": werr.Retryable(),
		}
		if werr.Current != nil {
			body["current"] = werr.Current
		}
		if len(werr.Details) > 0 {
			body["details"] = werr.Details
		}
		c.AbortWithStatusJSON(StatusFor(werr.Kind), body)
		return
	}

	log.Printf("[%s] %s %s: %v", ctxutil.RequestIDFromContext(c.Request.Context()), c.Request.Method, c.FullPath(), err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"error":   "internal",
		"message": "internal server error",
	})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "bad_request", "message": msg})
}

// paramID parses a positive numeric path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func queryID(c *gin.Context, name string) uint {
	id, err := strconv.ParseUint(c.Query(name), 10, 64)
	if err != nil {
		return 0
	}
	return uint(id)
}

// bind decodes an optional JSON body. An empty body leaves dst untouched.
func bind(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func actor(c *gin.Context) workflow.Actor {
	a, _ := middleware.CurrentActor(c)
	return a
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
