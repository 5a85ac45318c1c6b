package mockapi

import (
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// SeedOptions sizes the generated fixture set.
type SeedOptions struct {
	Seed       uint64 // 0 picks a random seed
	Events     int
	PerEvent   int // records per event-scoped collection
	PerGlobal  int // records per global collection besides events
	StartsFrom time.Time
}

// DefaultSeed is a dataset large enough to exercise pagination.
var DefaultSeed = SeedOptions{Seed: 42, Events: 3, PerEvent: 12, PerGlobal: 15}

// Seed fills the server with generated records plus a manager and a staff
// account (manager@example.com / manager123, staff@example.com / staff123).
func (s *Server) Seed(opts SeedOptions) {
	f := gofakeit.New(opts.Seed)
	start := opts.StartsFrom
	if start.IsZero() {
		start = time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	}

	s.AddAccount("manager", "manager@example.com", "manager", "manager123")
	s.AddAccount("staff", "staff@example.com", "staff", "staff123")

	gen := map[string]func() map[string]any{
		"clients": func() map[string]any {
			return map[string]any{"name": f.Name(), "company": f.Company(), "email": f.Email(), "phone": f.Phone(), "address": f.Street() + ", " + f.City()}
		},
		"departments": func() map[string]any {
			return map[string]any{"name": f.JobDescriptor(), "description": f.Sentence(6)}
		},
		"instructors": func() map[string]any {
			return map[string]any{"first_name": f.FirstName(), "last_name": f.LastName(), "email": f.Email(), "phone": f.Phone(), "speciality": f.BuzzWord()}
		},
		"agencies": func() map[string]any {
			return map[string]any{"name": f.Company() + " Location", "address": f.Street() + ", " + f.City(), "phone": f.Phone(), "email": f.Email()}
		},
		"cars": func() map[string]any {
			return map[string]any{"brand": f.CarMaker(), "model": f.CarModel(), "plate": f.Regex("[A-Z]{2}-[0-9]{3}-[A-Z]{2}"), "seats": f.Number(2, 9), "daily_rate": fmt.Sprintf("%.2f", f.Price(30, 180))}
		},
	}
	for _, name := range []string{"clients", "departments", "instructors", "agencies", "cars"} {
		for i := 0; i < opts.PerGlobal; i++ {
			_, _ = s.Insert(name, gen[name]())
		}
	}

	for e := 0; e < opts.Events; e++ {
		day := start.AddDate(0, e, 0)
		eventID, _ := s.Insert("events", map[string]any{
			"name":        f.Company() + " " + f.BuzzWord() + " Summit",
			"start_date":  day.Format("2006-01-02"),
			"end_date":    day.AddDate(0, 0, 2).Format("2006-01-02"),
			"location":    f.City(),
			"description": "**" + f.Sentence(4) + "**\n\n" + f.Sentence(10),
			"budget":      fmt.Sprintf("%.2f", f.Price(5000, 90000)),
		})

		scoped := map[string]func(i int) map[string]any{
			"staff": func(int) map[string]any {
				return map[string]any{"first_name": f.FirstName(), "last_name": f.LastName(), "email": f.Email(), "phone": f.Phone(), "position": f.JobTitle(), "daily_rate": fmt.Sprintf("%.2f", f.Price(120, 450))}
			},
			"equipment": func(int) map[string]any {
				return map[string]any{"name": f.ProductName(), "category": f.ProductCategory(), "quantity": f.Number(1, 40), "unit_price": fmt.Sprintf("%.2f", f.Price(5, 900))}
			},
			"accommodations": func(int) map[string]any {
				return map[string]any{"name": "Hôtel " + f.LastName(), "address": f.Street() + ", " + f.City(), "check_in": day.AddDate(0, 0, -1).Format("2006-01-02"), "check_out": day.AddDate(0, 0, 2).Format("2006-01-02"), "rooms": f.Number(1, 30), "price_per_night": fmt.Sprintf("%.2f", f.Price(60, 240))}
			},
			"soirees": func(int) map[string]any {
				return map[string]any{"name": f.Adjective() + " " + f.Noun() + " night", "date": day.AddDate(0, 0, 1).Format("2006-01-02"), "venue": f.Company(), "capacity": f.Number(20, 400), "description": "*" + f.Sentence(8) + "*"}
			},
			"transports": func(i int) map[string]any {
				dep := day.Add(time.Duration(7+i%10) * time.Hour)
				return map[string]any{"type": f.RandomString([]string{"bus", "train", "shuttle", "plane"}), "departure_place": f.City(), "arrival_place": f.City(), "departure_time": dep.Format("2006-01-02T15:04:05"), "arrival_time": dep.Add(3 * time.Hour).Format("2006-01-02T15:04:05"), "seats": f.Number(8, 60)}
			},
			"workshops": func(i int) map[string]any {
				st := day.Add(time.Duration(9+i%8) * time.Hour)
				return map[string]any{"title": f.BuzzWord() + " " + f.Noun(), "room": fmt.Sprintf("Salle %d", f.Number(1, 12)), "start_time": st.Format("2006-01-02T15:04:05"), "end_time": st.Add(90 * time.Minute).Format("2006-01-02T15:04:05"), "capacity": f.Number(10, 80), "description": f.Sentence(12)}
			},
			"pauses": func(i int) map[string]any {
				st := day.Add(time.Duration(10+i%6)*time.Hour + 30*time.Minute)
				return map[string]any{"label": f.RandomString([]string{"Café", "Déjeuner", "Goûter"}), "start_time": st.Format("2006-01-02T15:04:05"), "end_time": st.Add(20 * time.Minute).Format("2006-01-02T15:04:05"), "location": "Hall " + f.Letter()}
			},
			"teams": func(int) map[string]any {
				return map[string]any{"name": "Équipe " + f.Color(), "description": f.Sentence(5)}
			},
		}
		for _, name := range EventCollections {
			for i := 0; i < opts.PerEvent; i++ {
				rec := scoped[name](i)
				rec["evenement_id"] = eventID
				_, _ = s.Insert(name, rec)
			}
		}
	}
}
