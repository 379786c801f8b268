package api

import (
	"net/http"

	"github.com/okian/sentio/pkg/version"
)

// VersionHandler reports the running build.
type VersionHandler struct{}

// NewVersionHandler creates a new version handler.
func NewVersionHandler() *VersionHandler {
	return &VersionHandler{}
}

// HandleVersion handles GET /version requests.
func (h *VersionHandler) HandleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}
