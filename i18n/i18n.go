// Package i18n holds the translated user-facing strings of the application.
package i18n

import "strings"

// DefaultLang is used when no supported language is requested.
const DefaultLang = "es"

var catalog = map[string]map[string]string{
	"es": {
		"required":             "Requerido",
		"too_short":            "Demasiado corto",
		"invalid_email":        "Correo electrónico inválido",
		"must_be_positive":     "Debe ser mayor que cero",
		"must_be_non_negative": "No puede ser negativo",
		"out_of_range":         "Fuera de rango",
		"invalid_choice":       "Opción inválida",
		"invalid_date":         "Fecha inválida",
		"before_start":         "La fecha de fin es anterior a la de inicio",
		"unknown_category":     "Categoría desconocida",
		"validation_failed":    "Revisa los campos del formulario",
		"invalid_json":         "Solicitud inválida",
		"not_found":            "Registro no encontrado",
		"forbidden":            "No tienes acceso a este registro",
		"unauthorized":         "Inicia sesión para continuar",
		"unknown_domain":       "Dominio desconocido",
		"delete_failed":        "No se pudo eliminar. Inténtalo de nuevo.",
		"not_persisted":        "Los cambios solo se guardaron en esta vista",
		"reset_done":           "Datos de demostración restablecidos",
		"reset_failed":         "No se pudieron restablecer los datos",
		"client_created":       "Cliente creado",
		"client_updated":       "Cliente actualizado",
		"client_deleted":       "Cliente eliminado",
		"contract_created":     "Contrato creado",
		"contract_updated":     "Contrato actualizado",
		"contract_deleted":     "Contrato eliminado",
		"invoice_created":      "Factura creada",
		"invoice_updated":      "Factura actualizada",
		"invoice_deleted":      "Factura eliminada",
		"project_created":      "Proyecto creado",
		"project_updated":      "Proyecto actualizado",
		"project_deleted":      "Proyecto eliminado",
	},
	"en": {
		"required":             "Required",
		"too_short":            "Too short",
		"invalid_email":        "Invalid email address",
		"must_be_positive":     "Must be greater than zero",
		"must_be_non_negative": "Cannot be negative",
		"out_of_range":         "Out of range",
		"invalid_choice":       "Invalid choice",
		"invalid_date":         "Invalid date",
		"before_start":         "End date is before start date",
		"unknown_category":     "Unknown category",
		"validation_failed":    "Please check the form fields",
		"invalid_json":         "Invalid request",
		"not_found":            "Record not found",
		"forbidden":            "You do not have access to this record",
		"unauthorized":         "Sign in to continue",
		"unknown_domain":       "Unknown domain",
		"delete_failed":        "Could not delete. Please try again.",
		"not_persisted":        "Changes were only kept for this view",
		"reset_done":           "Demo data restored",
		"reset_failed":         "Could not restore demo data",
		"client_created":       "Client created",
		"client_updated":       "Client updated",
		"client_deleted":       "Client deleted",
		"contract_created":     "Contract created",
		"contract_updated":     "Contract updated",
		"contract_deleted":     "Contract deleted",
		"invoice_created":      "Invoice created",
		"invoice_updated":      "Invoice updated",
		"invoice_deleted":      "Invoice deleted",
		"project_created":      "Project created",
		"project_updated":      "Project updated",
		"project_deleted":      "Project deleted",
	},
}

// Supported reports whether lang has a translation table.
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}

// DetectLanguage picks a supported language from an Accept-Language header.
// Only the primary tag of each entry is considered, in header order.
func DetectLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if Supported(primary) {
			return primary
		}
	}
	return DefaultLang
}

// T translates code; unknown languages fall back to DefaultLang and unknown
// codes are returned unchanged.
func T(lang, code string) string {
	if m, ok := catalog[lang]; ok {
		if s, ok := m[code]; ok {
			return s
		}
	}
	if s, ok := catalog[DefaultLang][code]; ok {
		return s
	}
	return code
}

// Violations translates every code of a field → code map.
func Violations(lang string, v map[string]string) map[string]string {
	out := make(map[string]string, len(v))
	for field, code := range v {
		out[field] = T(lang, code)
	}
	return out
}
