// api/router.go
package api

import (
	"github.com/gin-gonic/gin"
)

func NewRouter(storage *Storage) *gin.Engine {
	r := gin.Default()

	r.GET("/api/meta", MetaListHandler(storage))
	r.GET("/api/meta/catalogs/:name", MetaCatalogHandler(storage))
	r.GET("/api/meta/:module/:model", MetaModelHandler(storage))

	apiGroup := r.Group("/api")
	{
		// статические "служебные" маршруты — СНАЧАЛА
		apiGroup.GET("/:module/:model/count", CountHandler(storage))
		apiGroup.POST("/:module/:model/:id/restore", RestoreHandler(storage))

		// обычные CRUD
		apiGroup.POST("/:module/:model", CreateHandler(storage))
		apiGroup.GET("/:module/:model", ListHandler(storage))
		apiGroup.GET("/:module/:model/:id", GetOneHandler(storage))
		apiGroup.PUT("/:module/:model/:id", UpdateHandler(storage))
		apiGroup.PATCH("/:module/:model/:id", UpdatePartialHandler(storage))
		apiGroup.DELETE("/:module/:model/:id", DeleteHandler(storage))
	}

	return r
}

func RunServer(addr string, storage *Storage) {
	_ = NewRouter(storage).Run(addr)
}
