// internal/menu/render.go
package menu

import (
	"strings"
)

// RenderTemplate replaces every {key} placeholder with its value.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

var slugReplacer = strings.NewReplacer(
	"á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ü", "u", "ñ", "n",
	" ", "-", "_", "-",
)

// Slug turns an area name into the key used by the webhook routing tables,
// e.g. "Administración" -> "administracion", "Otra consulta" -> "otra-consulta".
func Slug(area string) string {
	return slugReplacer.Replace(strings.ToLower(strings.TrimSpace(area)))
}
