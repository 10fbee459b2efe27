package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kwameasante/lingomate/internal/cache"
	"github.com/kwameasante/lingomate/internal/config"
	"github.com/kwameasante/lingomate/internal/domain/language"
)

type LanguageLister interface {
	List(ctx context.Context) ([]language.Language, error)
}

type LanguagesHandler struct {
	languages LanguageLister
	cache     *cache.Cache
}

func NewLanguagesHandler(languages LanguageLister, c *cache.Cache) *LanguagesHandler {
	return &LanguagesHandler{languages: languages, cache: c}
}

const languagesCacheKey = "languages:list"

// List serves the supported-language directory. The rows only change on
// deploy, so a short TTL cache absorbs nearly all reads.
func (h *LanguagesHandler) List(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(languagesCacheKey); ok {
			if rows, ok := v.([]language.Language); ok {
				ctx.JSON(http.StatusOK, gin.H{"data": rows})
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	rows, err := h.languages.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list languages")
		return
	}

	if h.cache != nil {
		h.cache.Set(languagesCacheKey, rows)
	}

	ctx.JSON(http.StatusOK, gin.H{"data": rows})
}
