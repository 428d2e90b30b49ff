package controllers

import (
	"net/http"

	"github.com/verdantlabs/canopy-backend/api/responses"
	"github.com/verdantlabs/canopy-backend/internal/catalog"
	pkgerrors "github.com/verdantlabs/canopy-backend/pkg/errors"
	"github.com/verdantlabs/canopy-backend/pkg/logger"
)

// maxImportBody caps the CSV upload at 10 MiB.
const maxImportBody = 10 << 20

// ImportProducts handles POST /api/v1/products/import. The request body is the
// raw CSV payload.
func ImportProducts(importer *catalog.Importer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if importer == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "importer unavailable"))
			return
		}

		body := http.MaxBytesReader(w, r.Body, maxImportBody)
		defer body.Close()

		result, err := importer.Import(ctx, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}
