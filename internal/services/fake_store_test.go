package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shuttle/internal/domain"
	"shuttle/internal/domain/models"
	"shuttle/internal/repositories"
)

// memStore is an in-memory repositories.Store. InTx snapshots the maps and
// restores them when fn fails, which is enough to observe rollbacks.
type memStore struct {
	data *memData
}

type memData struct {
	seq       int64
	routes    map[int64]models.Route
	stops     map[int64]models.Stop
	schedules map[int64]models.Schedule
	users     map[int64]models.User
	students  map[int64]models.Student
	drivers   map[int64]models.Driver
	vehicles  map[int64]models.Vehicle
	bookings  map[int64]models.Booking
	payments  map[int64]models.Payment
	trips     map[int64]models.Trip
	locations []models.VehicleLocation

	txCount     int
	failCreate  map[string]int // resource -> remaining duplicate-key failures
	failCascade error
	beforeTx    func(m *memStore)
}

func newMemStore() *memStore {
	return &memStore{data: &memData{
		routes:     map[int64]models.Route{},
		stops:      map[int64]models.Stop{},
		schedules:  map[int64]models.Schedule{},
		users:      map[int64]models.User{},
		students:   map[int64]models.Student{},
		drivers:    map[int64]models.Driver{},
		vehicles:   map[int64]models.Vehicle{},
		bookings:   map[int64]models.Booking{},
		payments:   map[int64]models.Payment{},
		trips:      map[int64]models.Trip{},
		failCreate: map[string]int{},
	}}
}

func (m *memStore) nextID() int64 {
	m.data.seq++
	return m.data.seq
}

func (m *memStore) Routes() repositories.RouteRepo       { return memRoutes{m} }
func (m *memStore) Accounts() repositories.AccountRepo   { return memAccounts{m} }
func (m *memStore) Vehicles() repositories.VehicleRepo   { return memVehicles{m} }
func (m *memStore) Bookings() repositories.BookingRepo   { return memBookings{m} }
func (m *memStore) Payments() repositories.PaymentRepo   { return memPayments{m} }
func (m *memStore) Trips() repositories.TripRepo         { return memTrips{m} }
func (m *memStore) Locations() repositories.LocationRepo { return memLocations{m} }
func (m *memStore) Reports() repositories.ReportRepo     { return memReports{m} }

func (m *memStore) InTx(ctx context.Context, fn func(tx repositories.Store) error) error {
	m.data.txCount++
	if hook := m.data.beforeTx; hook != nil {
		m.data.beforeTx = nil
		hook(m)
	}
	snap := m.data.clone()
	if err := fn(m); err != nil {
		restored := snap
		restored.txCount = m.data.txCount
		restored.failCreate = m.data.failCreate
		*m.data = *restored
		return err
	}
	return nil
}

func (d *memData) clone() *memData {
	c := *d
	c.routes = cloneMap(d.routes)
	c.stops = cloneMap(d.stops)
	c.schedules = cloneMap(d.schedules)
	c.users = cloneMap(d.users)
	c.students = cloneMap(d.students)
	c.drivers = cloneMap(d.drivers)
	c.vehicles = cloneMap(d.vehicles)
	c.bookings = cloneMap(d.bookings)
	c.payments = cloneMap(d.payments)
	c.trips = cloneMap(d.trips)
	c.locations = append([]models.VehicleLocation(nil), d.locations...)
	return &c
}

func cloneMap[V any](in map[int64]V) map[int64]V {
	out := make(map[int64]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memStore) injectedDuplicate(resource string) error {
	if m.data.failCreate[resource] > 0 {
		m.data.failCreate[resource]--
		return domain.ConflictError{Resource: resource, Msg: "duplicate"}
	}
	return nil
}

// --- seed helpers ---

func (m *memStore) addVehicle(v models.Vehicle) models.Vehicle {
	v.ID = m.nextID()
	m.data.vehicles[v.ID] = v
	return v
}

func (m *memStore) addRoute(r models.Route) models.Route {
	r.ID = m.nextID()
	m.data.routes[r.ID] = r
	return r
}

func (m *memStore) addStop(s models.Stop) models.Stop {
	s.ID = m.nextID()
	m.data.stops[s.ID] = s
	return s
}

func (m *memStore) addSchedule(s models.Schedule) models.Schedule {
	s.ID = m.nextID()
	m.data.schedules[s.ID] = s
	return s
}

func (m *memStore) addStudent(s models.Student) models.Student {
	s.ID = m.nextID()
	m.data.students[s.ID] = s
	return s
}

func (m *memStore) addDriver(d models.Driver) models.Driver {
	d.ID = m.nextID()
	m.data.drivers[d.ID] = d
	return d
}

func (m *memStore) addTrip(t models.Trip) models.Trip {
	t.ID = m.nextID()
	m.data.trips[t.ID] = t
	return t
}

func (m *memStore) addBooking(b models.Booking) models.Booking {
	b.ID = m.nextID()
	if b.Code == "" {
		b.Code = fmt.Sprintf("BKSEED%04d", b.ID)
	}
	m.data.bookings[b.ID] = b
	return b
}

func (m *memStore) addPayment(p models.Payment) models.Payment {
	p.ID = m.nextID()
	m.data.payments[p.ID] = p
	return p
}

func (m *memStore) booking(id int64) models.Booking { return m.data.bookings[id] }
func (m *memStore) trip(id int64) models.Trip       { return m.data.trips[id] }

// --- routes ---

type memRoutes struct{ m *memStore }

func (r memRoutes) ListActive(_ context.Context, f models.RouteFilter) ([]models.Route, error) {
	out := []models.Route{}
	for _, rt := range r.m.data.routes {
		if rt.Active && f.Matches(rt) {
			out = append(out, rt)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r memRoutes) List(_ context.Context) ([]models.Route, error) {
	out := []models.Route{}
	for _, rt := range r.m.data.routes {
		out = append(out, rt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (r memRoutes) GetByCode(_ context.Context, code string) (models.Route, error) {
	for _, rt := range r.m.data.routes {
		if rt.Code == code {
			return rt, nil
		}
	}
	return models.Route{}, domain.NotFoundError{Resource: "route"}
}

func (r memRoutes) GetByID(_ context.Context, id int64) (models.Route, error) {
	rt, ok := r.m.data.routes[id]
	if !ok {
		return rt, domain.NotFoundError{Resource: "route"}
	}
	return rt, nil
}

func (r memRoutes) Create(_ context.Context, rt *models.Route) error {
	for _, x := range r.m.data.routes {
		if x.Code == rt.Code {
			return domain.ConflictError{Resource: "route", Msg: "route code already exists"}
		}
	}
	rt.ID = r.m.nextID()
	r.m.data.routes[rt.ID] = *rt
	return nil
}

func (r memRoutes) ListStops(_ context.Context, routeID int64) ([]models.Stop, error) {
	out := []models.Stop{}
	for _, s := range r.m.data.stops {
		if s.RouteID == routeID {
			out = append(out, s)
		}
	}
	// reverse insertion order so tests see the service sort
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memRoutes) GetStop(_ context.Context, id int64) (models.Stop, error) {
	s, ok := r.m.data.stops[id]
	if !ok {
		return s, domain.NotFoundError{Resource: "stop"}
	}
	return s, nil
}

func (r memRoutes) CreateStop(_ context.Context, s *models.Stop) error {
	for _, x := range r.m.data.stops {
		if x.RouteID == s.RouteID && x.Order == s.Order {
			return domain.ConflictError{Resource: "stop", Msg: "order taken"}
		}
	}
	s.ID = r.m.nextID()
	r.m.data.stops[s.ID] = *s
	return nil
}

func (r memRoutes) ListSchedules(_ context.Context, routeID int64, activeOnly bool) ([]models.Schedule, error) {
	out := []models.Schedule{}
	for _, s := range r.m.data.schedules {
		if s.RouteID == routeID && (!activeOnly || s.Active) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r memRoutes) GetSchedule(_ context.Context, id int64) (models.Schedule, error) {
	s, ok := r.m.data.schedules[id]
	if !ok {
		return s, domain.NotFoundError{Resource: "schedule"}
	}
	return s, nil
}

func (r memRoutes) CreateSchedule(_ context.Context, s *models.Schedule) error {
	for _, x := range r.m.data.schedules {
		if x.RouteID == s.RouteID && x.Day == s.Day && x.DepartureTime == s.DepartureTime {
			return domain.ConflictError{Resource: "schedule", Msg: "duplicate"}
		}
	}
	s.ID = r.m.nextID()
	r.m.data.schedules[s.ID] = *s
	return nil
}

// --- accounts ---

type memAccounts struct{ m *memStore }

func (a memAccounts) CreateUser(_ context.Context, u *models.User) error {
	for _, x := range a.m.data.users {
		if x.Username == u.Username || x.Email == u.Email {
			return domain.ConflictError{Resource: "user", Msg: "username or email already registered"}
		}
	}
	u.ID = a.m.nextID()
	a.m.data.users[u.ID] = *u
	return nil
}

func (a memAccounts) GetUserByLogin(_ context.Context, login string) (models.User, error) {
	for _, u := range a.m.data.users {
		if u.Username == login || u.Email == login {
			return u, nil
		}
	}
	return models.User{}, domain.NotFoundError{Resource: "user"}
}

func (a memAccounts) Identity(_ context.Context, userID int64) (models.Identity, error) {
	u, ok := a.m.data.users[userID]
	if !ok {
		return models.Identity{}, domain.NotFoundError{Resource: "user"}
	}
	id := models.Identity{User: u}
	for _, d := range a.m.data.drivers {
		if d.UserID == userID {
			id.Driver = &d
		}
	}
	for _, s := range a.m.data.students {
		if s.UserID == userID {
			id.Student = &s
		}
	}
	return id, nil
}

func (a memAccounts) CreateStudent(_ context.Context, s *models.Student) error {
	for _, x := range a.m.data.students {
		if x.Code == s.Code {
			return domain.ConflictError{Resource: "student", Msg: "student id already registered"}
		}
	}
	s.ID = a.m.nextID()
	a.m.data.students[s.ID] = *s
	return nil
}

func (a memAccounts) GetStudent(_ context.Context, id int64) (models.Student, error) {
	s, ok := a.m.data.students[id]
	if !ok {
		return s, domain.NotFoundError{Resource: "student"}
	}
	return s, nil
}

func (a memAccounts) CreateDriver(_ context.Context, d *models.Driver) error {
	for _, x := range a.m.data.drivers {
		if x.Code == d.Code {
			return domain.ConflictError{Resource: "driver", Msg: "driver id already registered"}
		}
	}
	d.ID = a.m.nextID()
	a.m.data.drivers[d.ID] = *d
	return nil
}

func (a memAccounts) GetDriver(_ context.Context, id int64) (models.Driver, error) {
	d, ok := a.m.data.drivers[id]
	if !ok {
		return d, domain.NotFoundError{Resource: "driver"}
	}
	return d, nil
}

func (a memAccounts) ListDrivers(_ context.Context) ([]models.DriverAccount, error) {
	out := []models.DriverAccount{}
	for _, d := range a.m.data.drivers {
		u := a.m.data.users[d.UserID]
		out = append(out, models.DriverAccount{Driver: d, Username: u.Username, FullName: u.FullName, Email: u.Email})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (a memAccounts) ListStudents(_ context.Context) ([]models.StudentAccount, error) {
	out := []models.StudentAccount{}
	for _, st := range a.m.data.students {
		u := a.m.data.users[st.UserID]
		out = append(out, models.StudentAccount{Student: st, Username: u.Username, FullName: u.FullName, Email: u.Email})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (a memAccounts) UpdateDriver(_ context.Context, d models.Driver) error {
	if _, ok := a.m.data.drivers[d.ID]; !ok {
		return domain.NotFoundError{Resource: "driver"}
	}
	a.m.data.drivers[d.ID] = d
	return nil
}

// --- vehicles ---

type memVehicles struct{ m *memStore }

func (v memVehicles) Create(_ context.Context, veh *models.Vehicle) error {
	for _, x := range v.m.data.vehicles {
		if x.PlateNumber == veh.PlateNumber {
			return domain.ConflictError{Resource: "vehicle", Msg: "plate number already registered"}
		}
	}
	veh.ID = v.m.nextID()
	v.m.data.vehicles[veh.ID] = *veh
	return nil
}

func (v memVehicles) GetByID(_ context.Context, id int64) (models.Vehicle, error) {
	veh, ok := v.m.data.vehicles[id]
	if !ok {
		return veh, domain.NotFoundError{Resource: "vehicle"}
	}
	return veh, nil
}

func (v memVehicles) List(_ context.Context, activeOnly bool) ([]models.Vehicle, error) {
	out := []models.Vehicle{}
	for _, veh := range v.m.data.vehicles {
		if !activeOnly || veh.Active {
			out = append(out, veh)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlateNumber < out[j].PlateNumber })
	return out, nil
}

// --- bookings ---

type memBookings struct{ m *memStore }

func (b memBookings) Create(_ context.Context, bk *models.Booking) error {
	if err := b.m.injectedDuplicate("booking"); err != nil {
		return err
	}
	for _, x := range b.m.data.bookings {
		if x.Code == bk.Code {
			return domain.ConflictError{Resource: "booking", Msg: "booking code already used"}
		}
	}
	bk.ID = b.m.nextID()
	b.m.data.bookings[bk.ID] = *bk
	return nil
}

func (b memBookings) GetByCode(_ context.Context, code string) (models.Booking, error) {
	for _, x := range b.m.data.bookings {
		if x.Code == code {
			return x, nil
		}
	}
	return models.Booking{}, domain.NotFoundError{Resource: "booking"}
}

func (b memBookings) List(_ context.Context, q repositories.BookingQuery) ([]models.Booking, error) {
	out := []models.Booking{}
	for _, x := range b.m.data.bookings {
		if q.StudentID > 0 && x.StudentID != q.StudentID {
			continue
		}
		if q.TripID > 0 && (x.TripID == nil || *x.TripID != q.TripID) {
			continue
		}
		if q.Status != "" && x.Status != q.Status {
			continue
		}
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (b memBookings) UpdateStatus(_ context.Context, id int64, from []models.BookingStatus, to models.BookingStatus) (bool, error) {
	x, ok := b.m.data.bookings[id]
	if !ok {
		return false, nil
	}
	for _, s := range from {
		if x.Status == s {
			x.Status = to
			b.m.data.bookings[id] = x
			return true, nil
		}
	}
	return false, nil
}

func (b memBookings) CascadeTripStatus(_ context.Context, tripID int64, from, to models.BookingStatus) (int64, error) {
	if err := b.m.data.failCascade; err != nil {
		return 0, err
	}
	var n int64
	for id, x := range b.m.data.bookings {
		if x.TripID != nil && *x.TripID == tripID && x.Status == from {
			x.Status = to
			b.m.data.bookings[id] = x
			n++
		}
	}
	return n, nil
}

func (b memBookings) AttachTrip(_ context.Context, tripID int64, key models.TripKey) (int64, error) {
	var n int64
	for id, x := range b.m.data.bookings {
		if x.TripID == nil && x.RouteID == key.RouteID && x.ScheduleID == key.ScheduleID &&
			x.Date.Equal(key.Date) && x.Status.Cancellable() {
			t := tripID
			x.TripID = &t
			b.m.data.bookings[id] = x
			n++
		}
	}
	return n, nil
}

// --- payments ---

type memPayments struct{ m *memStore }

func (p memPayments) Create(_ context.Context, pay *models.Payment) error {
	if err := p.m.injectedDuplicate("payment"); err != nil {
		return err
	}
	pay.ID = p.m.nextID()
	p.m.data.payments[pay.ID] = *pay
	return nil
}

func (p memPayments) GetByBookingID(_ context.Context, bookingID int64) (models.Payment, error) {
	for _, x := range p.m.data.payments {
		if x.BookingID == bookingID {
			return x, nil
		}
	}
	return models.Payment{}, domain.NotFoundError{Resource: "payment"}
}

func (p memPayments) SetStatus(_ context.Context, id int64, from, to models.PaymentStatus) (bool, error) {
	x, ok := p.m.data.payments[id]
	if !ok || x.Status != from {
		return false, nil
	}
	x.Status = to
	p.m.data.payments[id] = x
	return true, nil
}

func (p memPayments) Settle(_ context.Context, id int64, method models.PaymentMethod, reference string, paidAt time.Time) (bool, error) {
	x, ok := p.m.data.payments[id]
	if !ok || x.Status != models.PaymentPending {
		return false, nil
	}
	x.Status = models.PaymentCompleted
	x.Method = method
	x.Reference = reference
	x.PaidAt = &paidAt
	p.m.data.payments[id] = x
	return true, nil
}

// --- trips ---

type memTrips struct{ m *memStore }

func (t memTrips) Create(_ context.Context, tr *models.Trip) error {
	if err := t.m.injectedDuplicate("trip"); err != nil {
		return err
	}
	for _, x := range t.m.data.trips {
		if x.RouteID == tr.RouteID && x.ScheduleID == tr.ScheduleID && x.Date.Equal(tr.Date) {
			return domain.ConflictError{Resource: "trip", Msg: "duplicate"}
		}
	}
	tr.ID = t.m.nextID()
	t.m.data.trips[tr.ID] = *tr
	return nil
}

func (t memTrips) GetByKey(_ context.Context, key models.TripKey) (models.Trip, error) {
	for _, x := range t.m.data.trips {
		if x.RouteID == key.RouteID && x.ScheduleID == key.ScheduleID && x.Date.Equal(key.Date) {
			return x, nil
		}
	}
	return models.Trip{}, domain.NotFoundError{Resource: "trip"}
}

func (t memTrips) GetByID(_ context.Context, id int64) (models.Trip, error) {
	x, ok := t.m.data.trips[id]
	if !ok {
		return x, domain.NotFoundError{Resource: "trip"}
	}
	return x, nil
}

func (t memTrips) GetForUpdate(ctx context.Context, id int64) (models.Trip, error) {
	return t.GetByID(ctx, id)
}

func (t memTrips) UpdateStatus(_ context.Context, tr models.Trip, from models.TripStatus) (bool, error) {
	x, ok := t.m.data.trips[tr.ID]
	if !ok || x.Status != from {
		return false, nil
	}
	x.Status = tr.Status
	x.StartedAt = tr.StartedAt
	x.CompletedAt = tr.CompletedAt
	t.m.data.trips[tr.ID] = x
	return true, nil
}

func (t memTrips) AssignDriver(_ context.Context, id, driverID int64) (bool, error) {
	x, ok := t.m.data.trips[id]
	if !ok || x.Status != models.TripScheduled {
		return false, nil
	}
	x.DriverID = driverID
	t.m.data.trips[id] = x
	return true, nil
}

func (t memTrips) List(_ context.Context, q repositories.TripQuery) ([]models.Trip, error) {
	out := []models.Trip{}
	for _, x := range t.m.data.trips {
		if q.DriverID > 0 && x.DriverID != q.DriverID {
			continue
		}
		if q.Status != "" && x.Status != q.Status {
			continue
		}
		if q.FromDate != nil && x.Date.Before(*q.FromDate) {
			continue
		}
		if q.Date != nil && !x.Date.Equal(*q.Date) {
			continue
		}
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })
	return out, nil
}

// --- locations ---

type memLocations struct{ m *memStore }

func (l memLocations) Append(_ context.Context, loc *models.VehicleLocation) error {
	loc.ID = l.m.nextID()
	l.m.data.locations = append(l.m.data.locations, *loc)
	return nil
}

func (l memLocations) Latest(_ context.Context, vehicleID int64) (models.VehicleLocation, error) {
	var best *models.VehicleLocation
	for i := range l.m.data.locations {
		x := &l.m.data.locations[i]
		if x.VehicleID != vehicleID {
			continue
		}
		if best == nil || x.RecordedAt.After(best.RecordedAt) ||
			(x.RecordedAt.Equal(best.RecordedAt) && x.ID > best.ID) {
			best = x
		}
	}
	if best == nil {
		return models.VehicleLocation{}, domain.NotFoundError{Resource: "vehicle location"}
	}
	return *best, nil
}

// --- reports ---

type memReports struct{ m *memStore }

func (r memReports) BookingCountsByStatus(_ context.Context) ([]models.StatusCount, error) {
	counts := map[models.BookingStatus]int{}
	for _, b := range r.m.data.bookings {
		counts[b.Status]++
	}
	out := []models.StatusCount{}
	for s, n := range counts {
		out = append(out, models.StatusCount{Status: s, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (r memReports) Revenue(_ context.Context) (int64, error) {
	var total int64
	for _, b := range r.m.data.bookings {
		if b.Status == models.BookingCompleted {
			total += b.TotalFare
		}
	}
	return total, nil
}

func (r memReports) MonthlyRevenue(_ context.Context, _ int) ([]models.MonthlyTotal, error) {
	byMonth := map[time.Time]int64{}
	for _, b := range r.m.data.bookings {
		if b.Status == models.BookingCompleted {
			m := time.Date(b.Date.Year(), b.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
			byMonth[m] += b.TotalFare
		}
	}
	out := []models.MonthlyTotal{}
	for m, t := range byMonth {
		out = append(out, models.MonthlyTotal{Month: m, Total: t})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month.Before(out[j].Month) })
	return out, nil
}

func (r memReports) DriverEarnings(_ context.Context, driverID int64) (models.DriverEarnings, error) {
	e := models.DriverEarnings{DriverID: driverID}
	byMonth := map[time.Time]int64{}
	for _, t := range r.m.data.trips {
		if t.DriverID != driverID || t.Status != models.TripCompleted {
			continue
		}
		e.CompletedTrips++
		for _, b := range r.m.data.bookings {
			if b.TripID != nil && *b.TripID == t.ID && b.Status == models.BookingCompleted {
				e.TotalEarnings += b.TotalFare
				m := time.Date(b.CreatedAt.Year(), b.CreatedAt.Month(), 1, 0, 0, 0, 0, time.UTC)
				byMonth[m] += b.TotalFare
			}
		}
	}
	e.MonthlyEarnings = []models.MonthlyTotal{}
	for m, t := range byMonth {
		e.MonthlyEarnings = append(e.MonthlyEarnings, models.MonthlyTotal{Month: m, Total: t})
	}
	sort.Slice(e.MonthlyEarnings, func(i, j int) bool { return e.MonthlyEarnings[i].Month.After(e.MonthlyEarnings[j].Month) })
	return e, nil
}

func (r memReports) DashboardCounts(_ context.Context, today time.Time) (models.DashboardCounts, error) {
	var c models.DashboardCounts
	for _, s := range r.m.data.students {
		if s.Active {
			c.ActiveStudents++
		}
	}
	for _, d := range r.m.data.drivers {
		if d.Active {
			c.ActiveDrivers++
		}
	}
	for _, rt := range r.m.data.routes {
		if rt.Active {
			c.ActiveRoutes++
		}
	}
	for _, t := range r.m.data.trips {
		if t.Date.Equal(today) {
			c.TodayTrips++
		}
	}
	return c, nil
}
