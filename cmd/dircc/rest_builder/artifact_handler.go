package restbuilder

import (
	"mime"
	"net/http"
	"path"

	"github.com/gin-gonic/gin"

	"github.com/buildforge/dircc/artifact"
)

type artifactHandle struct {
	store artifact.Store
}

// NewArtifactHandle creates a new artifact handle
func NewArtifactHandle(store artifact.Store) Register {
	return &artifactHandle{
		store: store,
	}
}

func (a *artifactHandle) Register(r *gin.Engine) {
	// Artifact handle
	r.GET("/artifact", a.artifactGet)
	r.GET("/artifact/:aid", a.artifactIDGet)
	r.DELETE("/artifact/:aid", a.artifactIDDelete)
}

func (a *artifactHandle) artifactGet(c *gin.Context) {
	ids := a.store.List()
	c.JSON(http.StatusOK, ids)
}

func (a *artifactHandle) artifactIDGet(c *gin.Context) {
	type artifactURI struct {
		ArtifactID string `uri:"aid"`
	}
	var uri artifactURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	name, p := a.store.Get(uri.ArtifactID)
	if p == "" {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	typ := mime.TypeByExtension(path.Ext(name))
	c.Header("Content-Type", typ)
	c.FileAttachment(p, name)
}

func (a *artifactHandle) artifactIDDelete(c *gin.Context) {
	type artifactURI struct {
		ArtifactID string `uri:"aid"`
	}
	var uri artifactURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.AbortWithError(http.StatusBadRequest, err)
		return
	}

	ok := a.store.Remove(uri.ArtifactID)
	if !ok {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}
	c.Status(http.StatusOK)
}
