package sandbox

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/diaglab/diaglab/internal/domain/catalog"
	"github.com/diaglab/diaglab/internal/domain/identity"
	"github.com/diaglab/diaglab/internal/domain/payments"
	"github.com/diaglab/diaglab/internal/domain/reports"
	"github.com/diaglab/diaglab/internal/domain/scheduling"
	"github.com/diaglab/diaglab/internal/platform/search"
)

var errEmailTaken = errors.New("email already registered")

type account struct {
	identity.User
	passwordHash []byte
}

// store is the sandbox's in-memory database. Every collection is a map plus
// an insertion-ordered id list.
type store struct {
	mu sync.RWMutex

	users     map[string]*account
	userOrder []string

	tests     map[string]catalog.Test
	testOrder []string

	packages     map[string]catalog.Package
	packageOrder []string

	memberships     map[string]catalog.Membership
	membershipOrder []string

	appointments     map[string]*scheduling.Appointment
	appointmentOrder []string

	payments     map[string]*payments.Payment
	paymentOrder []string

	reports     map[string]*reports.Report
	reportOrder []string
}

func newStore() *store {
	return &store{
		users:        make(map[string]*account),
		tests:        make(map[string]catalog.Test),
		packages:     make(map[string]catalog.Package),
		memberships:  make(map[string]catalog.Membership),
		appointments: make(map[string]*scheduling.Appointment),
		payments:     make(map[string]*payments.Payment),
		reports:      make(map[string]*reports.Report),
	}
}

// -- Users --

func (s *store) addUser(a *account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, a.Email) {
			return errEmailTaken
		}
	}
	s.users[a.ID] = a
	s.userOrder = append(s.userOrder, a.ID)
	return nil
}

func (s *store) userByEmail(email string) (*account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, true
		}
	}
	return nil, false
}

func (s *store) user(id string) (identity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.users[id]
	if !ok {
		return identity.User{}, false
	}
	return a.User, true
}

func (s *store) listUsers() []identity.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]identity.User, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		out = append(out, s.users[id].User)
	}
	return out
}

// -- Catalog --

func (s *store) putTest(t catalog.Test) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tests[t.ID]; !ok {
		s.testOrder = append(s.testOrder, t.ID)
	}
	s.tests[t.ID] = t
}

func (s *store) listTests(category string) []catalog.Test {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Test, 0, len(s.testOrder))
	for _, id := range s.testOrder {
		t := s.tests[id]
		if category != "" && t.Category != category {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (s *store) test(id string) (catalog.Test, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tests[id]
	return t, ok
}

func (s *store) deleteTest(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tests, id)
	s.testOrder = without(s.testOrder, id)
}

func (s *store) putPackage(p catalog.Package) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.packages[p.ID]; !ok {
		s.packageOrder = append(s.packageOrder, p.ID)
	}
	s.packages[p.ID] = p
}

func (s *store) listPackages() []catalog.Package {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Package, 0, len(s.packageOrder))
	for _, id := range s.packageOrder {
		out = append(out, s.packages[id])
	}
	return out
}

func (s *store) pkg(id string) (catalog.Package, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.packages[id]
	return p, ok
}

func (s *store) deletePackage(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.packages, id)
	s.packageOrder = without(s.packageOrder, id)
}

func (s *store) putMembership(m catalog.Membership) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.memberships[m.ID]; !ok {
		s.membershipOrder = append(s.membershipOrder, m.ID)
	}
	s.memberships[m.ID] = m
}

func (s *store) listMemberships() []catalog.Membership {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]catalog.Membership, 0, len(s.membershipOrder))
	for _, id := range s.membershipOrder {
		out = append(out, s.memberships[id])
	}
	return out
}

func (s *store) membership(id string) (catalog.Membership, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[id]
	return m, ok
}

func (s *store) deleteMembership(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memberships, id)
	s.membershipOrder = without(s.membershipOrder, id)
}

// -- Appointments --

func (s *store) addAppointment(a *scheduling.Appointment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[a.ID] = a
	s.appointmentOrder = append(s.appointmentOrder, a.ID)
}

func (s *store) appointment(id string) (scheduling.Appointment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.appointments[id]
	if !ok {
		return scheduling.Appointment{}, false
	}
	return *a, true
}

// listAppointments returns matching appointments, newest first.
func (s *store) listAppointments(keep func(*scheduling.Appointment) bool) []scheduling.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []scheduling.Appointment{}
	for i := len(s.appointmentOrder) - 1; i >= 0; i-- {
		a := s.appointments[s.appointmentOrder[i]]
		if keep == nil || keep(a) {
			out = append(out, *a)
		}
	}
	return out
}

func (s *store) updateAppointment(id string, fn func(*scheduling.Appointment)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return false
	}
	fn(a)
	return true
}

// countBooked counts non-cancelled appointments holding date and slot.
func (s *store) countBooked(date, slot string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, a := range s.appointments {
		if a.Date == date && a.Slot() == slot && a.Status != scheduling.StatusCancelled {
			n++
		}
	}
	return n
}

func (s *store) searchConfirmed(query string) []scheduling.Appointment {
	return s.listAppointments(func(a *scheduling.Appointment) bool {
		if a.Status != scheduling.StatusConfirmed {
			return false
		}
		return search.ContainsFold(a.UserName, query) ||
			search.ContainsFold(a.UserPhone, query) ||
			search.ContainsFold(a.BookingID, query)
	})
}

// -- Payments --

func (s *store) addPayment(p *payments.Payment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payments[p.ID] = p
	s.paymentOrder = append(s.paymentOrder, p.ID)
}

func (s *store) paymentByOrder(orderID string) (*payments.Payment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.payments {
		if p.RazorpayOrderID != nil && *p.RazorpayOrderID == orderID {
			cp := *p
			return &cp, true
		}
	}
	return nil, false
}

func (s *store) completePayment(id, paymentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.payments[id]; ok {
		p.RazorpayPaymentID = &paymentID
		p.Status = payments.StatusCompleted
	}
}

func (s *store) listPayments(userID string) []payments.Payment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []payments.Payment{}
	for i := len(s.paymentOrder) - 1; i >= 0; i-- {
		p := s.payments[s.paymentOrder[i]]
		if userID == "" || p.UserID == userID {
			out = append(out, *p)
		}
	}
	return out
}

// -- Reports --

func (s *store) addReport(r *reports.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.ID] = r
	s.reportOrder = append(s.reportOrder, r.ID)
}

func (s *store) report(id string) (reports.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[id]
	if !ok {
		return reports.Report{}, false
	}
	return *r, true
}

func (s *store) deleteReport(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, id)
	s.reportOrder = without(s.reportOrder, id)
}

// listReports returns matching reports, most recently reported first.
func (s *store) listReports(patientID string) []reports.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []reports.Report{}
	for _, id := range s.reportOrder {
		r := s.reports[id]
		if patientID == "" || r.PatientID == patientID {
			out = append(out, *r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReportDate.After(out[j].ReportDate) })
	return out
}

func without(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
