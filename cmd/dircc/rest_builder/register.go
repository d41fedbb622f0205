package restbuilder

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/buildforge/dircc/builder"
	"github.com/buildforge/dircc/cmd/dircc/model"
)

// Register registers a handler on the gin engine
type Register interface {
	Register(*gin.Engine)
}

// BuildService runs build passes on behalf of the HTTP surface. Builds are
// serialized by the implementation since they share one build directory.
type BuildService interface {
	Build(ctx context.Context, req *model.BuildRequest, observe func(builder.FileResult)) (*builder.Summary, error)
}
