package i18n

// labels holds form labels, table headers and option names. They are
// merged into catalog at init so T serves both.
var labels = map[string]map[string]string{
	"fr": {
		"field.address":         "Adresse",
		"field.agency_id":       "Agence (id)",
		"field.arrival_place":   "Lieu d'arrivée",
		"field.arrival_time":    "Arrivée",
		"field.brand":           "Marque",
		"field.budget":          "Budget",
		"field.capacity":        "Capacité",
		"field.category":        "Catégorie",
		"field.check_in":        "Arrivée",
		"field.check_out":       "Départ",
		"field.client_id":       "Client (id)",
		"field.company":         "Société",
		"field.cost":            "Coût",
		"field.daily_rate":      "Tarif journalier",
		"field.date":            "Date",
		"field.department_id":   "Département (id)",
		"field.departure_place": "Lieu de départ",
		"field.departure_time":  "Départ",
		"field.description":     "Description",
		"field.email":           "E-mail",
		"field.end_date":        "Date de fin",
		"field.end_time":        "Fin",
		"field.first_name":      "Prénom",
		"field.full_name":       "Nom complet",
		"field.identifier":      "E-mail ou nom d'utilisateur",
		"field.instructor_id":   "Formateur (id)",
		"field.label":           "Libellé",
		"field.last_name":       "Nom",
		"field.location":        "Lieu",
		"field.model":           "Modèle",
		"field.name":            "Nom",
		"field.password":        "Mot de passe",
		"field.phone":           "Téléphone",
		"field.plate":           "Immatriculation",
		"field.position":        "Poste",
		"field.price_per_night": "Prix par nuit",
		"field.quantity":        "Quantité",
		"field.role":            "Rôle",
		"field.room":            "Salle",
		"field.rooms":           "Chambres",
		"field.seats":           "Places",
		"field.speciality":      "Spécialité",
		"field.staff_id":        "Responsable (id)",
		"field.start_date":      "Date de début",
		"field.start_time":      "Début",
		"field.title":           "Titre",
		"field.total":           "Total",
		"field.type":            "Type",
		"field.unit_price":      "Prix unitaire",
		"field.username":        "Nom d'utilisateur",
		"field.venue":           "Lieu",
		"field.when":            "Date",
		"field.user":            "Utilisateur",
		"field.action":          "Action",
		"field.resource":        "Ressource",
		"field.event":           "Événement",
		"field.detail":          "Détail",
		"hint.markdown":         "Markdown accepté",
		"role.admin":            "Administrateur",
		"role.manager":          "Gestionnaire",
		"role.staff":            "Personnel",
		"transport.bus":         "Bus",
		"transport.car":         "Voiture",
		"transport.plane":       "Avion",
		"transport.shuttle":     "Navette",
		"transport.train":       "Train",
		"select_all":            "Tout sélectionner sur cette page",
		"page_of":               "Page %d sur %d",
		"selected_count":        "%d sélectionné(s)",
		"events_overview":       "Vue d'ensemble des événements",
		"open":                  "Ouvrir",
		"welcome":               "Bienvenue",
		"no_account":            "Pas encore de compte ?",
		"have_account":          "Déjà inscrit ?",
		"back":                  "Retour",
		"confirm_delete":        "Confirmer la suppression ?",
		"language":              "Langue",
		"theme":                 "Thème",
		"theme.light":           "Clair",
		"theme.dark":            "Sombre",
		"action.create":         "Création",
		"action.update":         "Modification",
		"action.delete":         "Suppression",
		"action.bulk_delete":    "Suppression groupée",
		"action.signup":         "Inscription",
	},
	"en": {
		"field.address":         "Address",
		"field.agency_id":       "Agency (id)",
		"field.arrival_place":   "Arrival place",
		"field.arrival_time":    "Arrival",
		"field.brand":           "Brand",
		"field.budget":          "Budget",
		"field.capacity":        "Capacity",
		"field.category":        "Category",
		"field.check_in":        "Check-in",
		"field.check_out":       "Check-out",
		"field.client_id":       "Client (id)",
		"field.company":         "Company",
		"field.cost":            "Cost",
		"field.daily_rate":      "Daily rate",
		"field.date":            "Date",
		"field.department_id":   "Department (id)",
		"field.departure_place": "Departure place",
		"field.departure_time":  "Departure",
		"field.description":     "Description",
		"field.email":           "Email",
		"field.end_date":        "End date",
		"field.end_time":        "End",
		"field.first_name":      "First name",
		"field.full_name":       "Full name",
		"field.identifier":      "Email or username",
		"field.instructor_id":   "Instructor (id)",
		"field.label":           "Label",
		"field.last_name":       "Last name",
		"field.location":        "Location",
		"field.model":           "Model",
		"field.name":            "Name",
		"field.password":        "Password",
		"field.phone":           "Phone",
		"field.plate":           "Plate",
		"field.position":        "Position",
		"field.price_per_night": "Price per night",
		"field.quantity":        "Quantity",
		"field.role":            "Role",
		"field.room":            "Room",
		"field.rooms":           "Rooms",
		"field.seats":           "Seats",
		"field.speciality":      "Speciality",
		"field.staff_id":        "Leader (id)",
		"field.start_date":      "Start date",
		"field.start_time":      "Start",
		"field.title":           "Title",
		"field.total":           "Total",
		"field.type":            "Type",
		"field.unit_price":      "Unit price",
		"field.username":        "Username",
		"field.venue":           "Venue",
		"field.when":            "When",
		"field.user":            "User",
		"field.action":          "Action",
		"field.resource":        "Resource",
		"field.event":           "Event",
		"field.detail":          "Detail",
		"hint.markdown":         "Markdown supported",
		"role.admin":            "Administrator",
		"role.manager":          "Manager",
		"role.staff":            "Staff",
		"transport.bus":         "Bus",
		"transport.car":         "Car",
		"transport.plane":       "Plane",
		"transport.shuttle":     "Shuttle",
		"transport.train":       "Train",
		"select_all":            "Select all on this page",
		"page_of":               "Page %d of %d",
		"selected_count":        "%d selected",
		"events_overview":       "Events overview",
		"open":                  "Open",
		"welcome":               "Welcome",
		"no_account":            "No account yet?",
		"have_account":          "Already registered?",
		"back":                  "Back",
		"confirm_delete":        "Delete this record?",
		"language":              "Language",
		"theme":                 "Theme",
		"theme.light":           "Light",
		"theme.dark":            "Dark",
		"action.create":         "Create",
		"action.update":         "Update",
		"action.delete":         "Delete",
		"action.bulk_delete":    "Bulk delete",
		"action.signup":         "Sign up",
	},
}

func init() {
	for lang, msgs := range labels {
		for code, msg := range msgs {
			catalog[lang][code] = msg
		}
	}
}
