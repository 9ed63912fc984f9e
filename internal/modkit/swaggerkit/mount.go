// Package swaggerkit serves an OpenAPI document and the Swagger UI
package swaggerkit

import (
	"net/http"

	phttp "hydroflow/internal/platform/net/http"

	httpSwagger "github.com/swaggo/http-swagger"
)

// Mount renders raw and mounts the UI under /swagger/
func Mount(r phttp.Router, raw []byte, serverURL string, mutators ...SpecMutator) error {
	doc, err := Render(raw, serverURL, mutators...)
	if err != nil {
		return err
	}
	r.Get("/swagger", func(w http.ResponseWriter, req *http.Request) {
		http.Redirect(w, req, "/swagger/index.html", http.StatusPermanentRedirect)
	})
	r.Get("/swagger/doc.json", serveDocJSON(doc))
	r.Handle("/swagger/*", httpSwagger.Handler(
		httpSwagger.InstanceName("hydroflow"),
		httpSwagger.URL("/swagger/doc.json"),
	))
	return nil
}
