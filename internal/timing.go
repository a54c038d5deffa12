package internal

import (
	"context"
	"log"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

// Time logs the duration of an operation when the returned func is deferred.
// Pass the address of the named error result to log failures as well.
func Time(ctx context.Context, name string) func(errp *error) {
	start := time.Now()
	reqID := middleware.GetReqID(ctx)

	return func(errp *error) {
		dur := time.Since(start)
		prefix := "op=" + name
		if reqID != "" {
			prefix = "req_id=" + reqID + " " + prefix
		}

		if errp != nil && *errp != nil {
			log.Printf("%s dur=%dms err=%v", prefix, dur.Milliseconds(), *errp)
			return
		}
		log.Printf("%s dur=%dms", prefix, dur.Milliseconds())
	}
}
