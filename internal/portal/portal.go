// Package portal reads dataset metadata and files from the Ecuadorian open
// data portal. Metadata comes from the CKAN action API when available and
// from the dataset's HTML page otherwise.
package portal

import (
	"strconv"
	"strings"
)

// Default endpoints. Every template substitutes {year}.
const (
	DefaultCSVURL      = "https://descargas.sri.gob.ec/download/datosAbiertos/SRI_Vehiculos_Nuevos_{year}.csv"
	DefaultMetaPageURL = "https://datosabiertos.gob.ec/dataset/estadisticas-vehiculos-{year}"
	DefaultCKANAPIURL  = "https://datosabiertos.gob.ec/api/3/action"
	DefaultDatasetID   = "estadisticas-vehiculos-{year}"
	DefaultSourceName  = "datosabiertos.gob.ec"
)

// YearPlaceholder is replaced by the four digit year in URL templates
const YearPlaceholder = "{year}"

// Expand substitutes year into template
func Expand(template string, year int) string {
	return strings.ReplaceAll(template, YearPlaceholder, strconv.Itoa(year))
}
