package httputil

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// GetQueryParameters reads the query parameters listed in defaults, falling
// back to the default value when one is missing or blank. A blank default
// makes the parameter required: if it is missing, a 400 status code and the
// reason are written to the ResponseWriter and false is returned.
func GetQueryParameters(w http.ResponseWriter, r *http.Request, defaults map[string]string) (map[string]string, zerolog.Logger, bool) {
	params := make(map[string]string, len(defaults))
	logger := log.With()
	query := r.URL.Query()
	for key, fallback := range defaults {
		value := query.Get(key)
		if value == "" {
			value = fallback
		}
		if value == "" {
			http.Error(w, fmt.Sprintf("expected %s query parameter", key), http.StatusBadRequest)
			return nil, zerolog.Nop(), false
		}
		params[key] = value
		logger = logger.Str(key, value)
	}
	return params, logger.Logger(), true
}
