package resources

import (
	"sort"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/diewo77/eventdesk/forms"
	"github.com/diewo77/eventdesk/internal/models"
	"github.com/diewo77/eventdesk/internal/upstream"
)

// Registry holds every bound resource by key.
type Registry struct {
	byKey map[string]Resource
	order []string
}

// NewRegistry builds an empty registry. Most callers want Default.
func NewRegistry(rs ...Resource) *Registry {
	reg := &Registry{byKey: make(map[string]Resource, len(rs))}
	for _, r := range rs {
		reg.Add(r)
	}
	return reg
}

// Add registers r, replacing any resource with the same key.
func (reg *Registry) Add(r Resource) {
	if _, exists := reg.byKey[r.Key()]; !exists {
		reg.order = append(reg.order, r.Key())
	}
	reg.byKey[r.Key()] = r
}

func (reg *Registry) Get(key string) (Resource, bool) {
	r, ok := reg.byKey[key]
	return r, ok
}

// All returns the resources in registration order.
func (reg *Registry) All() []Resource {
	out := make([]Resource, 0, len(reg.order))
	for _, k := range reg.order {
		out = append(out, reg.byKey[k])
	}
	return out
}

// Scoped returns the event-scoped resources in registration order.
func (reg *Registry) Scoped() []Resource { return reg.filter(true) }

// Global returns the resources listed outside any event.
func (reg *Registry) Global() []Resource { return reg.filter(false) }

func (reg *Registry) filter(scoped bool) []Resource {
	var out []Resource
	for _, r := range reg.All() {
		if r.Scoped() == scoped {
			out = append(out, r)
		}
	}
	return out
}

// Keys returns every key, sorted.
func (reg *Registry) Keys() []string {
	out := append([]string(nil), reg.order...)
	sort.Strings(out)
	return out
}

// Default binds every collection of the dashboard.
func Default(client *upstream.Client, snapshots SnapshotStore) *Registry {
	return NewRegistry(
		Bind(Events, client, snapshots),
		Bind(Clients, client, snapshots),
		Bind(Departments, client, snapshots),
		Bind(Instructors, client, snapshots),
		Bind(Agencies, client, snapshots),
		Bind(Cars, client, snapshots),
		Bind(Staff, client, snapshots),
		Bind(Equipment, client, snapshots),
		Bind(Accommodations, client, snapshots),
		Bind(Soirees, client, snapshots),
		Bind(Transports, client, snapshots),
		Bind(Workshops, client, snapshots),
		Bind(Pauses, client, snapshots),
		Bind(Teams, client, snapshots),
		Bind(Accounts, client, snapshots),
	)
}

// global returns the endpoint set used by collections at /{key}.
func global(key string) Endpoints {
	return Endpoints{
		List:   "/" + key,
		Create: "/" + key,
		Update: "/" + key + "/{id}",
		Delete: "/" + key + "/{id}",
		Bulk:   "/" + key,
	}
}

// scoped lists under the event but writes to the flat collection, with
// evenement_id carried in the body.
func scoped(key string) Endpoints {
	e := global(key)
	e.List = "/events/{event}/" + key
	return e
}

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func itoa(n int) string { return strconv.Itoa(n) }

func ref(id int64) string {
	if id == 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

var roleOptions = []forms.Option{
	{Value: "admin", Label: "role.admin"},
	{Value: "manager", Label: "role.manager"},
	{Value: "staff", Label: "role.staff"},
}

var transportOptions = []forms.Option{
	{Value: "bus", Label: "transport.bus"},
	{Value: "train", Label: "transport.train"},
	{Value: "shuttle", Label: "transport.shuttle"},
	{Value: "plane", Label: "transport.plane"},
	{Value: "car", Label: "transport.car"},
}

var Events = Definition[models.Event]{
	Key:       "events",
	PageSize:  10,
	Endpoints: global("events"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Event]{
		{Header: "field.name", Value: func(e models.Event) string { return e.Name }},
		{Header: "field.start_date", Value: func(e models.Event) string { return e.StartDate.String() }},
		{Header: "field.end_date", Value: func(e models.Event) string { return e.EndDate.String() }},
		{Header: "field.location", Value: func(e models.Event) string { return e.Location }},
		{Header: "field.budget", Value: func(e models.Event) string { return money(e.Budget) }},
	},
	Search: func(e models.Event) []string { return []string{e.Name, e.Location} },
	Fields: []forms.Field{
		{Name: "name", Label: "field.name", Kind: forms.Text, Rules: "required,min=2"},
		{Name: "start_date", Label: "field.start_date", Kind: forms.Date, Rules: "required"},
		{Name: "end_date", Label: "field.end_date", Kind: forms.Date, Rules: "required", After: "start_date"},
		{Name: "location", Label: "field.location", Kind: forms.Text, Rules: "required"},
		{Name: "budget", Label: "field.budget", Kind: forms.Decimal, Rules: "gte=0"},
		{Name: "description", Label: "field.description", Kind: forms.TextArea, Hint: "hint.markdown"},
	},
}

var Clients = Definition[models.Client]{
	Key:       "clients",
	PageSize:  10,
	Endpoints: global("clients"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Client]{
		{Header: "field.name", Value: func(c models.Client) string { return c.Name }},
		{Header: "field.company", Value: func(c models.Client) string { return c.Company }},
		{Header: "field.email", Value: func(c models.Client) string { return c.Email }},
		{Header: "field.phone", Value: func(c models.Client) string { return c.Phone }},
	},
	Search: func(c models.Client) []string { return []string{c.Name, c.Company, c.Email} },
	Fields: []forms.Field{
		{Name: "name", Label: "field.name", Kind: forms.Text, Rules: "required"},
		{Name: "company", Label: "field.company", Kind: forms.Text},
		{Name: "email", Label: "field.email", Kind: forms.Email, Rules: "required,email"},
		{Name: "phone", Label: "field.phone", Kind: forms.Tel},
		{Name: "address", Label: "field.address", Kind: forms.Text},
	},
}

var Departments = Definition[models.Department]{
	Key:       "departments",
	PageSize:  10,
	Endpoints: global("departments"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Department]{
		{Header: "field.name", Value: func(d models.Department) string { return d.Name }},
		{Header: "field.description", Value: func(d models.Department) string { return d.Description }},
		{Header: "field.client_id", Value: func(d models.Department) string { return ref(d.ClientID) }},
	},
	Search: func(d models.Department) []string { return []string{d.Name, d.Description} },
	Fields: []forms.Field{
		{Name: "name", Label: "field.name", Kind: forms.Text, Rules: "required"},
		{Name: "description", Label: "field.description", Kind: forms.TextArea},
		{Name: "client_id", Label: "field.client_id", Kind: forms.Integer, Rules: "gte=1"},
	},
}

var Instructors = Definition[models.Instructor]{
	Key:       "instructors",
	PageSize:  7,
	Endpoints: global("instructors"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Instructor]{
		{Header: "field.full_name", Value: models.Instructor.FullName},
		{Header: "field.email", Value: func(i models.Instructor) string { return i.Email }},
		{Header: "field.phone", Value: func(i models.Instructor) string { return i.Phone }},
		{Header: "field.speciality", Value: func(i models.Instructor) string { return i.Speciality }},
	},
	Search: func(i models.Instructor) []string { return []string{i.FirstName, i.LastName, i.Email, i.Speciality} },
	Fields: []forms.Field{
		{Name: "first_name", Label: "field.first_name", Kind: forms.Text, Rules: "required"},
		{Name: "last_name", Label: "field.last_name", Kind: forms.Text, Rules: "required"},
		{Name: "email", Label: "field.email", Kind: forms.Email, Rules: "required,email"},
		{Name: "phone", Label: "field.phone", Kind: forms.Tel},
		{Name: "speciality", Label: "field.speciality", Kind: forms.Text, Rules: "required"},
	},
}

var Agencies = Definition[models.Agency]{
	Key:       "agencies",
	PageSize:  7,
	Endpoints: global("agencies"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Agency]{
		{Header: "field.name", Value: func(a models.Agency) string { return a.Name }},
		{Header: "field.address", Value: func(a models.Agency) string { return a.Address }},
		{Header: "field.phone", Value: func(a models.Agency) string { return a.Phone }},
		{Header: "field.email", Value: func(a models.Agency) string { return a.Email }},
	},
	Search: func(a models.Agency) []string { return []string{a.Name, a.Address, a.Email} },
	Fields: []forms.Field{
		{Name: "name", Label: "field.name", Kind: forms.Text, Rules: "required"},
		{Name: "address", Label: "field.address", Kind: forms.Text},
		{Name: "phone", Label: "field.phone", Kind: forms.Tel},
		{Name: "email", Label: "field.email", Kind: forms.Email, Rules: "omitempty,email"},
	},
}

var Cars = Definition[models.Car]{
	Key:       "cars",
	PageSize:  7,
	Endpoints: global("cars"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Car]{
		{Header: "field.brand", Value: func(c models.Car) string { return c.Brand }},
		{Header: "field.model", Value: func(c models.Car) string { return c.Model }},
		{Header: "field.plate", Value: func(c models.Car) string { return c.Plate }},
		{Header: "field.seats", Value: func(c models.Car) string { return itoa(c.Seats) }},
		{Header: "field.daily_rate", Value: func(c models.Car) string { return money(c.DailyRate) }},
	},
	Search: func(c models.Car) []string { return []string{c.Brand, c.Model, c.Plate} },
	Fields: []forms.Field{
		{Name: "brand", Label: "field.brand", Kind: forms.Text, Rules: "required"},
		{Name: "model", Label: "field.model", Kind: forms.Text, Rules: "required"},
		{Name: "plate", Label: "field.plate", Kind: forms.Text, Rules: "required"},
		{Name: "seats", Label: "field.seats", Kind: forms.Integer, Rules: "required,gte=1"},
		{Name: "daily_rate", Label: "field.daily_rate", Kind: forms.Decimal, Rules: "gte=0"},
		{Name: "agency_id", Label: "field.agency_id", Kind: forms.Integer, Rules: "gte=1"},
	},
}

var Staff = Definition[models.Staff]{
	Key:       "staff",
	Scoped:    true,
	PageSize:  7,
	Endpoints: scoped("staff"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Staff]{
		{Header: "field.full_name", Value: models.Staff.FullName},
		{Header: "field.email", Value: func(s models.Staff) string { return s.Email }},
		{Header: "field.position", Value: func(s models.Staff) string { return s.Position }},
		{Header: "field.daily_rate", Value: func(s models.Staff) string { return money(s.DailyRate) }},
	},
	Search: func(s models.Staff) []string { return []string{s.FirstName, s.LastName, s.Email, s.Position} },
	Fields: []forms.Field{
		{Name: "first_name", Label: "field.first_name", Kind: forms.Text, Rules: "required"},
		{Name: "last_name", Label: "field.last_name", Kind: forms.Text, Rules: "required"},
		{Name: "email", Label: "field.email", Kind: forms.Email, Rules: "required,email"},
		{Name: "phone", Label: "field.phone", Kind: forms.Tel},
		{Name: "position", Label: "field.position", Kind: forms.Text, Rules: "required"},
		{Name: "department_id", Label: "field.department_id", Kind: forms.Integer, Rules: "gte=1"},
		{Name: "daily_rate", Label: "field.daily_rate", Kind: forms.Decimal, Rules: "gte=0"},
	},
}

var Equipment = Definition[models.Equipment]{
	Key:       "equipment",
	Scoped:    true,
	PageSize:  10,
	Endpoints: scoped("equipment"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Equipment]{
		{Header: "field.name", Value: func(e models.Equipment) string { return e.Name }},
		{Header: "field.category", Value: func(e models.Equipment) string { return e.Category }},
		{Header: "field.quantity", Value: func(e models.Equipment) string { return itoa(e.Quantity) }},
		{Header: "field.unit_price", Value: func(e models.Equipment) string { return money(e.UnitPrice) }},
		{Header: "field.total", Value: func(e models.Equipment) string { return money(e.Total()) }},
	},
	Search: func(e models.Equipment) []string { return []string{e.Name, e.Category} },
	Fields: []forms.Field{
		{Name: "name", Label: "field.name", Kind: forms.Text, Rules: "required"},
		{Name: "category", Label: "field.category", Kind: forms.Text, Rules: "required"},
		{Name: "quantity", Label: "field.quantity", Kind: forms.Integer, Rules: "required,gte=1"},
		{Name: "unit_price", Label: "field.unit_price", Kind: forms.Decimal, Rules: "gte=0"},
	},
}

var Accommodations = Definition[models.Accommodation]{
	Key:       "accommodations",
	Scoped:    true,
	PageSize:  7,
	Endpoints: scoped("accommodations"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Accommodation]{
		{Header: "field.name", Value: func(a models.Accommodation) string { return a.Name }},
		{Header: "field.check_in", Value: func(a models.Accommodation) string { return a.CheckIn.String() }},
		{Header: "field.check_out", Value: func(a models.Accommodation) string { return a.CheckOut.String() }},
		{Header: "field.rooms", Value: func(a models.Accommodation) string { return itoa(a.Rooms) }},
		{Header: "field.cost", Value: func(a models.Accommodation) string { return money(a.Cost()) }},
	},
	Search: func(a models.Accommodation) []string { return []string{a.Name, a.Address} },
	Fields: []forms.Field{
		{Name: "name", Label: "field.name", Kind: forms.Text, Rules: "required"},
		{Name: "address", Label: "field.address", Kind: forms.Text, Rules: "required"},
		{Name: "check_in", Label: "field.check_in", Kind: forms.Date, Rules: "required"},
		{Name: "check_out", Label: "field.check_out", Kind: forms.Date, Rules: "required", After: "check_in"},
		{Name: "rooms", Label: "field.rooms", Kind: forms.Integer, Rules: "required,gte=1"},
		{Name: "price_per_night", Label: "field.price_per_night", Kind: forms.Decimal, Rules: "gte=0"},
	},
}

var Soirees = Definition[models.Soiree]{
	Key:       "soirees",
	Scoped:    true,
	PageSize:  7,
	Endpoints: scoped("soirees"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Soiree]{
		{Header: "field.name", Value: func(s models.Soiree) string { return s.Name }},
		{Header: "field.date", Value: func(s models.Soiree) string { return s.Date.String() }},
		{Header: "field.venue", Value: func(s models.Soiree) string { return s.Venue }},
		{Header: "field.capacity", Value: func(s models.Soiree) string { return itoa(s.Capacity) }},
	},
	Search: func(s models.Soiree) []string { return []string{s.Name, s.Venue} },
	Fields: []forms.Field{
		{Name: "name", Label: "field.name", Kind: forms.Text, Rules: "required"},
		{Name: "date", Label: "field.date", Kind: forms.Date, Rules: "required"},
		{Name: "venue", Label: "field.venue", Kind: forms.Text, Rules: "required"},
		{Name: "capacity", Label: "field.capacity", Kind: forms.Integer, Rules: "gte=1"},
		{Name: "description", Label: "field.description", Kind: forms.TextArea, Hint: "hint.markdown"},
	},
}

var Transports = Definition[models.Transport]{
	Key:       "transports",
	Scoped:    true,
	PageSize:  10,
	Endpoints: scoped("transports"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Transport]{
		{Header: "field.type", Value: func(t models.Transport) string { return t.Kind }},
		{Header: "field.departure_place", Value: func(t models.Transport) string { return t.From }},
		{Header: "field.arrival_place", Value: func(t models.Transport) string { return t.To }},
		{Header: "field.departure_time", Value: func(t models.Transport) string { return t.DepartureTime.String() }},
		{Header: "field.arrival_time", Value: func(t models.Transport) string { return t.ArrivalTime.String() }},
		{Header: "field.seats", Value: func(t models.Transport) string { return itoa(t.Seats) }},
	},
	Search: func(t models.Transport) []string { return []string{t.Kind, t.From, t.To} },
	Fields: []forms.Field{
		{Name: "type", Label: "field.type", Kind: forms.Select, Rules: "required", Options: transportOptions},
		{Name: "departure_place", Label: "field.departure_place", Kind: forms.Text, Rules: "required"},
		{Name: "arrival_place", Label: "field.arrival_place", Kind: forms.Text, Rules: "required"},
		{Name: "departure_time", Label: "field.departure_time", Kind: forms.DateTime, Rules: "required"},
		{Name: "arrival_time", Label: "field.arrival_time", Kind: forms.DateTime, Rules: "required", After: "departure_time"},
		{Name: "seats", Label: "field.seats", Kind: forms.Integer, Rules: "gte=1"},
	},
}

var Workshops = Definition[models.Workshop]{
	Key:       "workshops",
	Scoped:    true,
	PageSize:  7,
	Endpoints: scoped("workshops"),
	Bulk:      BulkEach,
	Columns: []Column[models.Workshop]{
		{Header: "field.title", Value: func(w models.Workshop) string { return w.Title }},
		{Header: "field.room", Value: func(w models.Workshop) string { return w.Room }},
		{Header: "field.start_time", Value: func(w models.Workshop) string { return w.StartTime.String() }},
		{Header: "field.end_time", Value: func(w models.Workshop) string { return w.EndTime.String() }},
		{Header: "field.capacity", Value: func(w models.Workshop) string { return itoa(w.Capacity) }},
	},
	Search: func(w models.Workshop) []string { return []string{w.Title, w.Room} },
	Fields: []forms.Field{
		{Name: "title", Label: "field.title", Kind: forms.Text, Rules: "required"},
		{Name: "room", Label: "field.room", Kind: forms.Text, Rules: "required"},
		{Name: "start_time", Label: "field.start_time", Kind: forms.DateTime, Rules: "required"},
		{Name: "end_time", Label: "field.end_time", Kind: forms.DateTime, Rules: "required", After: "start_time"},
		{Name: "capacity", Label: "field.capacity", Kind: forms.Integer, Rules: "gte=1"},
		{Name: "instructor_id", Label: "field.instructor_id", Kind: forms.Integer, Rules: "gte=1"},
		{Name: "description", Label: "field.description", Kind: forms.TextArea, Hint: "hint.markdown"},
	},
}

var Pauses = Definition[models.Pause]{
	Key:       "pauses",
	Scoped:    true,
	PageSize:  10,
	Endpoints: scoped("pauses"),
	Bulk:      BulkEach,
	Columns: []Column[models.Pause]{
		{Header: "field.label", Value: func(p models.Pause) string { return p.Label }},
		{Header: "field.start_time", Value: func(p models.Pause) string { return p.StartTime.String() }},
		{Header: "field.end_time", Value: func(p models.Pause) string { return p.EndTime.String() }},
		{Header: "field.location", Value: func(p models.Pause) string { return p.Location }},
	},
	Search: func(p models.Pause) []string { return []string{p.Label, p.Location} },
	Fields: []forms.Field{
		{Name: "label", Label: "field.label", Kind: forms.Text, Rules: "required"},
		{Name: "start_time", Label: "field.start_time", Kind: forms.DateTime, Rules: "required"},
		{Name: "end_time", Label: "field.end_time", Kind: forms.DateTime, Rules: "required", After: "start_time"},
		{Name: "location", Label: "field.location", Kind: forms.Text},
	},
}

var Teams = Definition[models.Team]{
	Key:       "teams",
	Scoped:    true,
	PageSize:  10,
	Endpoints: scoped("teams"),
	Bulk:      BulkSingle,
	Columns: []Column[models.Team]{
		{Header: "field.name", Value: func(t models.Team) string { return t.Name }},
		{Header: "field.staff_id", Value: func(t models.Team) string { return ref(t.LeaderID) }},
		{Header: "field.description", Value: func(t models.Team) string { return t.Description }},
	},
	Search: func(t models.Team) []string { return []string{t.Name, t.Description} },
	Fields: []forms.Field{
		{Name: "name", Label: "field.name", Kind: forms.Text, Rules: "required"},
		{Name: "staff_id", Label: "field.staff_id", Kind: forms.Integer, Rules: "gte=1"},
		{Name: "description", Label: "field.description", Kind: forms.TextArea},
	},
}

// Accounts go through the upstream auth endpoints, which take the id in
// the body and have no bulk route.
var Accounts = Definition[models.Account]{
	Key:      "accounts",
	PageSize: 10,
	Endpoints: Endpoints{
		List:   "/getAcounts",
		Create: "/signUp",
		Update: "/updateAccount",
		Delete: "/deleteAccount",
	},
	IDInBody: true,
	Bulk:     BulkEach,
	Columns: []Column[models.Account]{
		{Header: "field.username", Value: func(a models.Account) string { return a.Username }},
		{Header: "field.email", Value: func(a models.Account) string { return a.Email }},
		{Header: "field.role", Value: func(a models.Account) string { return a.Role }},
	},
	Search: func(a models.Account) []string { return []string{a.Username, a.Email, a.Role} },
	Fields: []forms.Field{
		{Name: "username", Label: "field.username", Kind: forms.Text, Rules: "required,min=3"},
		{Name: "email", Label: "field.email", Kind: forms.Email, Rules: "required,email"},
		{Name: "role", Label: "field.role", Kind: forms.Select, Rules: "required", Options: roleOptions},
		{Name: "password", Label: "field.password", Kind: forms.Password, Rules: "required,min=6", OptionalOnUpdate: true},
	},
}
