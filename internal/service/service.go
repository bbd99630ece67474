package service

import (
	"math"
	"net/http"

	internal_errors "github.com/jisap/threads-clone/internal/errors"
	"github.com/jisap/threads-clone/internal/logger"
	"github.com/jisap/threads-clone/internal/metrics"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fail records the outcome of an action and turns server-side failures into
// an ActionError. Client errors (4xx) are returned as is.
func fail(action string, err error) error {
	metrics.RecordAction(action, err)
	if err == nil {
		return nil
	}
	if internal_errors.StatusCode(err) < http.StatusInternalServerError {
		return err
	}
	logger.Log.Error("action failed", "action", action, "error", err)
	return internal_errors.Wrap(action, err)
}

// ParseId parses a hex object id coming from a URL or a form.
func ParseId(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, internal_errors.BadRequest("Invalid id")
	}
	return oid, nil
}

func clampPage(page int) int {
	return max(1, page)
}

// pastLastPage reports whether the offset of page can't be represented, in
// which case no page can follow it either.
func pastLastPage(page, pageSize int) bool {
	return pageSize > 0 && page-1 > math.MaxInt/pageSize
}

func pageSizeOrDefault(pageSize, fallback int) int {
	if pageSize < 1 {
		return fallback
	}
	return pageSize
}
