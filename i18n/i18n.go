// Package i18n holds the dashboard's fr/en message catalog.
package i18n

import (
	"context"

	"golang.org/x/text/language"
)

// Default is the language used when nothing better is known.
const Default = "fr"

var supported = []language.Tag{language.French, language.English}

var matcher = language.NewMatcher(supported)

var catalog = map[string]map[string]string{
	"fr": {
		"required":                "Requis",
		"invalid_email":           "Adresse e-mail invalide",
		"invalid_number":          "Nombre invalide",
		"invalid_date":            "Date invalide",
		"must_be_positive":        "Doit être positif",
		"too_short":               "Trop court",
		"invalid_format":          "Format invalide",
		"invalid_choice":          "Choix invalide",
		"must_be_after":           "Doit être postérieur à la date de début",
		"login_failed":            "Identifiants invalides",
		"login_throttled":         "Trop de tentatives, réessayez plus tard",
		"signup_ok":               "Compte créé",
		"logged_out":              "Vous êtes déconnecté",
		"created":                 "Enregistrement créé",
		"updated":                 "Enregistrement mis à jour",
		"deleted":                 "Enregistrement supprimé",
		"bulk_deleted":            "Sélection supprimée",
		"bulk_partial":            "Certaines suppressions ont échoué",
		"nothing_selected":        "Aucune ligne sélectionnée",
		"draft_saved":             "Brouillon enregistré",
		"fetch_failed":            "Impossible de charger les données",
		"save_failed":             "Échec de l'enregistrement",
		"delete_failed":           "Échec de la suppression",
		"not_found":               "Introuvable",
		"forbidden":               "Accès refusé",
		"cannot_delete_self":      "Vous ne pouvez pas supprimer votre propre compte",
		"session_expired":         "Session expirée, veuillez vous reconnecter",
		"upstream_unreachable":    "Le serveur est injoignable",
		"search":                  "Rechercher",
		"new":                     "Nouveau",
		"edit":                    "Modifier",
		"delete":                  "Supprimer",
		"delete_selected":         "Supprimer la sélection",
		"save":                    "Enregistrer",
		"save_draft":              "Enregistrer le brouillon",
		"cancel":                  "Annuler",
		"previous":                "Précédent",
		"next":                    "Suivant",
		"no_rows":                 "Aucun résultat",
		"logout":                  "Déconnexion",
		"login":                   "Connexion",
		"signup":                  "Inscription",
		"dashboard":               "Tableau de bord",
		"activity":                "Activité",
		"export_xlsx":             "Exporter (Excel)",
		"export_pdf":              "Exporter (PDF)",
		"stale_data":              "Données affichées issues du dernier chargement réussi",
		"resource.events":         "Événements",
		"resource.staff":          "Personnel",
		"resource.clients":        "Clients",
		"resource.departments":    "Départements",
		"resource.equipment":      "Équipements",
		"resource.accommodations": "Hébergements",
		"resource.soirees":        "Soirées",
		"resource.transports":     "Transports",
		"resource.workshops":      "Ateliers",
		"resource.instructors":    "Formateurs",
		"resource.pauses":         "Pauses",
		"resource.teams":          "Équipes",
		"resource.cars":           "Voitures",
		"resource.agencies":       "Agences",
		"resource.accounts":       "Comptes",
	},
	"en": {
		"required":                "Required",
		"invalid_email":           "Invalid email address",
		"invalid_number":          "Invalid number",
		"invalid_date":            "Invalid date",
		"must_be_positive":        "Must be positive",
		"too_short":               "Too short",
		"invalid_format":          "Invalid format",
		"invalid_choice":          "Invalid choice",
		"must_be_after":           "Must be after the start date",
		"login_failed":            "Invalid credentials",
		"login_throttled":         "Too many attempts, try again later",
		"signup_ok":               "Account created",
		"logged_out":              "You are logged out",
		"created":                 "Record created",
		"updated":                 "Record updated",
		"deleted":                 "Record deleted",
		"bulk_deleted":            "Selection deleted",
		"bulk_partial":            "Some deletions failed",
		"nothing_selected":        "No row selected",
		"draft_saved":             "Draft saved",
		"fetch_failed":            "Could not load data",
		"save_failed":             "Save failed",
		"delete_failed":           "Delete failed",
		"not_found":               "Not found",
		"forbidden":               "Forbidden",
		"cannot_delete_self":      "You cannot delete your own account",
		"session_expired":         "Session expired, please log in again",
		"upstream_unreachable":    "The server is unreachable",
		"search":                  "Search",
		"new":                     "New",
		"edit":                    "Edit",
		"delete":                  "Delete",
		"delete_selected":         "Delete selected",
		"save":                    "Save",
		"save_draft":              "Save draft",
		"cancel":                  "Cancel",
		"previous":                "Previous",
		"next":                    "Next",
		"no_rows":                 "No results",
		"logout":                  "Log out",
		"login":                   "Log in",
		"signup":                  "Sign up",
		"dashboard":               "Dashboard",
		"activity":                "Activity",
		"export_xlsx":             "Export (Excel)",
		"export_pdf":              "Export (PDF)",
		"stale_data":              "Showing data from the last successful load",
		"resource.events":         "Events",
		"resource.staff":          "Staff",
		"resource.clients":        "Clients",
		"resource.departments":    "Departments",
		"resource.equipment":      "Equipment",
		"resource.accommodations": "Accommodations",
		"resource.soirees":        "Soirees",
		"resource.transports":     "Transports",
		"resource.workshops":      "Workshops",
		"resource.instructors":    "Instructors",
		"resource.pauses":         "Breaks",
		"resource.teams":          "Teams",
		"resource.cars":           "Cars",
		"resource.agencies":       "Agencies",
		"resource.accounts":       "Accounts",
	},
}

// T translates code into lang. Unknown languages fall back to French and
// unknown codes are returned as-is.
func T(lang, code string) string {
	if msgs, ok := catalog[lang]; ok {
		if msg, ok := msgs[code]; ok {
			return msg
		}
	}
	if msg, ok := catalog[Default][code]; ok {
		return msg
	}
	return code
}

// Supported reports whether lang has a catalog.
func Supported(lang string) bool {
	_, ok := catalog[lang]
	return ok
}

// DetectLanguage picks fr or en from an Accept-Language header.
func DetectLanguage(acceptLanguage string) string {
	if acceptLanguage == "" {
		return Default
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return Default
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Default
	}
	base, _ := supported[idx].Base()
	return base.String()
}

type langKey struct{}

// WithLang stores the request language in ctx.
func WithLang(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, langKey{}, lang)
}

// LangFromContext returns the request language, or Default.
func LangFromContext(ctx context.Context) string {
	if lang, ok := ctx.Value(langKey{}).(string); ok && lang != "" {
		return lang
	}
	return Default
}
