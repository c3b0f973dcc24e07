package http

import (
	_ "embed"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/continuum"
	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var rawSpec []byte

// GetSwagger parses and validates the embedded OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi document: %w", err)
	}
	return doc, nil
}

var loadSwagger = sync.OnceValues(GetSwagger)

// GetOpenAPI handles the GET /openapi.yaml request.
func (s *Server) GetOpenAPI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/yaml")
	if _, err := w.Write(rawSpec); err != nil {
		s.logger.Debug("OpenAPI write failed", "err", err)
	}
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := loadSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	} else if err != nil {
		s.logger.Error("Failed to load OpenAPI document", "err", err)
	}

	writeJSON(w, s.logger, http.StatusOK, map[string]string{
		"app":         "continuum-http",
		"version":     strings.TrimSpace(continuum.Version),
		"api_version": apiVersion,
	})
}
