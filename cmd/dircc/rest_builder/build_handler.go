package restbuilder

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/buildforge/dircc/cmd/dircc/model"
)

type buildHandle struct {
	svc    BuildService
	logger *zap.Logger
}

// NewBuildHandle creates a new build handle
func NewBuildHandle(svc BuildService, logger *zap.Logger) Register {
	return &buildHandle{
		svc:    svc,
		logger: logger,
	}
}

func (b *buildHandle) Register(r *gin.Engine) {
	// Build handle
	r.POST("/build", b.handleBuild)
}

func (b *buildHandle) handleBuild(ctx *gin.Context) {
	var req model.BuildRequest
	if ctx.Request.ContentLength > 0 {
		if err := ctx.ShouldBindJSON(&req); err != nil {
			ctx.Error(err)
			ctx.AbortWithStatusJSON(http.StatusBadRequest, err.Error())
			return
		}
	}

	b.logger.Sugar().Debugf("build request: %+v", req)
	sum, err := b.svc.Build(ctx.Request.Context(), &req, nil)
	if err != nil {
		ctx.Error(err)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, err.Error())
		return
	}
	b.logger.Sugar().Debugf("build summary: %d/%d succeeded", sum.Succeeded, sum.Total)

	// encode json directly to avoid allocation
	ctx.Status(http.StatusOK)
	ctx.Header("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(ctx.Writer).Encode(model.ConvertSummary(req.RequestID, sum)); err != nil {
		ctx.Error(err)
	}
}
