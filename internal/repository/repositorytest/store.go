// Package repositorytest provides in-memory repository implementations used
// by the service tests. The fakes mirror the semantics of the postgres
// implementations, including slot-conflict rejection and position compaction.
package repositorytest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediqueue/clinic-api/internal/model"
	"github.com/mediqueue/clinic-api/internal/repository"
)

type Store struct {
	mu           sync.Mutex
	users        map[uuid.UUID]*model.User
	doctors      map[uuid.UUID]*model.Doctor
	patients     map[uuid.UUID]*model.Patient
	queue        []*model.QueueEntry
	appointments []*model.Appointment
	tokens       map[uuid.UUID]string
}

func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]*model.User),
		doctors:  make(map[uuid.UUID]*model.Doctor),
		patients: make(map[uuid.UUID]*model.Patient),
		tokens:   make(map[uuid.UUID]string),
	}
}

// Seed helpers

func (s *Store) SeedUser(name string, role model.Role) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := &model.User{
		ID:    uuid.New(),
		Name:  name,
		Email: name + "@example.com",
		Role:  role,
	}
	s.users[user.ID] = user
	return user
}

func (s *Store) SeedDoctor(user *model.User) *model.Doctor {
	s.mu.Lock()
	defer s.mu.Unlock()
	doctor := &model.Doctor{
		ID:           uuid.New(),
		UserID:       user.ID,
		Verification: model.VerificationApproved,
		Availability: model.Availability{},
		Name:         user.Name,
	}
	s.doctors[doctor.ID] = doctor
	return doctor
}

func (s *Store) SeedPatient(user *model.User) *model.Patient {
	s.mu.Lock()
	defer s.mu.Unlock()
	patient := &model.Patient{
		ID:     uuid.New(),
		UserID: user.ID,
		Name:   user.Name,
	}
	s.patients[patient.ID] = patient
	return patient
}

// QueueEntries returns a snapshot of all queue entries for invariant checks.
func (s *Store) QueueEntries() []*model.QueueEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*model.QueueEntry, len(s.queue))
	for i, e := range s.queue {
		copied := *e
		out[i] = &copied
	}
	return out
}

func (s *Store) Users() repository.UserRepository               { return &userRepo{s} }
func (s *Store) Doctors() repository.DoctorRepository           { return &doctorRepo{s} }
func (s *Store) Patients() repository.PatientRepository         { return &patientRepo{s} }
func (s *Store) Queue() repository.QueueRepository              { return &queueRepo{s} }
func (s *Store) Appointments() repository.AppointmentRepository { return &appointmentRepo{s} }
func (s *Store) Tokens() repository.TokenRepository             { return &tokenRepo{s} }

// user repository

type userRepo struct{ s *Store }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	copied := *user
	r.s.users[user.ID] = &copied
	return nil
}

func (r *userRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (r *userRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Email == email {
			copied := *user
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepo) List(_ context.Context, page, limit int) ([]*model.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	all := make([]*model.User, 0, len(r.s.users))
	for _, user := range r.s.users {
		copied := *user
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return paginate(all, page, limit), int64(len(all)), nil
}

// doctor repository

type doctorRepo struct{ s *Store }

func (r *doctorRepo) Create(_ context.Context, doctor *model.Doctor) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.doctors {
		if existing.UserID == doctor.UserID {
			return repository.ErrDuplicate
		}
	}
	doctor.ID = uuid.New()
	doctor.CreatedAt = time.Now()
	doctor.UpdatedAt = doctor.CreatedAt
	copied := *doctor
	if user, ok := r.s.users[doctor.UserID]; ok {
		copied.Name = user.Name
	}
	r.s.doctors[doctor.ID] = &copied
	return nil
}

func (r *doctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doctor, ok := r.s.doctors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *doctor
	return &copied, nil
}

func (r *doctorRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Doctor, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, doctor := range r.s.doctors {
		if doctor.UserID == userID {
			copied := *doctor
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *doctorRepo) UpdateAvailability(_ context.Context, id uuid.UUID, availability model.Availability) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doctor, ok := r.s.doctors[id]
	if !ok {
		return repository.ErrNotFound
	}
	doctor.Availability = availability
	return nil
}

func (r *doctorRepo) UpdateVerification(_ context.Context, id uuid.UUID, status model.VerificationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doctor, ok := r.s.doctors[id]
	if !ok {
		return repository.ErrNotFound
	}
	doctor.Verification = status
	return nil
}

func (r *doctorRepo) UpdateAvatar(_ context.Context, id uuid.UUID, url string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	doctor, ok := r.s.doctors[id]
	if !ok {
		return repository.ErrNotFound
	}
	doctor.AvatarURL = url
	return nil
}

func (r *doctorRepo) ListApproved(_ context.Context, filters *model.DoctorFilters) ([]*model.Doctor, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := []*model.Doctor{}
	for _, doctor := range r.s.doctors {
		if doctor.Verification != model.VerificationApproved {
			continue
		}
		if filters.Specialization != "" && doctor.Specialization != filters.Specialization {
			continue
		}
		copied := *doctor
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })
	return paginate(matched, filters.Page, filters.Limit), int64(len(matched)), nil
}

// patient repository

type patientRepo struct{ s *Store }

func (r *patientRepo) Create(_ context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.patients {
		if existing.UserID == patient.UserID {
			return repository.ErrDuplicate
		}
	}
	patient.ID = uuid.New()
	patient.CreatedAt = time.Now()
	patient.UpdatedAt = patient.CreatedAt
	copied := *patient
	if user, ok := r.s.users[patient.UserID]; ok {
		copied.Name = user.Name
	}
	r.s.patients[patient.ID] = &copied
	return nil
}

func (r *patientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	patient, ok := r.s.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *patient
	return &copied, nil
}

func (r *patientRepo) GetByUserID(_ context.Context, userID uuid.UUID) (*model.Patient, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, patient := range r.s.patients {
		if patient.UserID == userID {
			copied := *patient
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *patientRepo) Update(_ context.Context, patient *model.Patient) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.patients[patient.ID]
	if !ok {
		return repository.ErrNotFound
	}
	*stored = *patient
	return nil
}

func (r *patientRepo) UpdateAvatar(_ context.Context, id uuid.UUID, url string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	patient, ok := r.s.patients[id]
	if !ok {
		return repository.ErrNotFound
	}
	patient.AvatarURL = url
	return nil
}

// queue repository

type queueRepo struct{ s *Store }

// AppendWaiting computes the tail position under the store lock, mirroring
// the single-statement append of the postgres implementation.
func (r *queueRepo) AppendWaiting(_ context.Context, entry *model.QueueEntry, slot time.Duration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	max := 0
	for _, existing := range r.s.queue {
		if existing.DoctorID == entry.DoctorID && existing.PatientID == entry.PatientID &&
			existing.Status != model.QueueStatusCompleted {
			return repository.ErrDuplicate
		}
		if existing.DoctorID == entry.DoctorID && existing.Status == model.QueueStatusWaiting &&
			existing.Position > max {
			max = existing.Position
		}
	}
	entry.ID = uuid.New()
	entry.Status = model.QueueStatusWaiting
	entry.Position = max + 1
	entry.CreatedAt = time.Now()
	entry.UpdatedAt = entry.CreatedAt
	entry.EstimatedTime = entry.CreatedAt.Add(time.Duration(entry.Position-1) * slot)
	copied := *entry
	r.s.queue = append(r.s.queue, &copied)
	return nil
}

func (r *queueRepo) Get(_ context.Context, id uuid.UUID) (*model.QueueEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, entry := range r.s.queue {
		if entry.ID == id {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *queueRepo) GetJoined(ctx context.Context, id uuid.UUID) (*model.QueueEntry, error) {
	entry, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.join(entry)
	return entry, nil
}

func (r *queueRepo) join(entry *model.QueueEntry) {
	if patient, ok := r.s.patients[entry.PatientID]; ok {
		if user, ok := r.s.users[patient.UserID]; ok {
			entry.PatientName = user.Name
		}
		entry.PatientAvatar = patient.AvatarURL
	}
	if doctor, ok := r.s.doctors[entry.DoctorID]; ok {
		if user, ok := r.s.users[doctor.UserID]; ok {
			entry.DoctorName = user.Name
		}
	}
}

func (r *queueRepo) FindActive(_ context.Context, doctorID, patientID uuid.UUID) (*model.QueueEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, entry := range r.s.queue {
		if entry.DoctorID == doctorID && entry.PatientID == patientID &&
			entry.Status != model.QueueStatusCompleted {
			copied := *entry
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *queueRepo) FindActiveByPatient(_ context.Context, patientID uuid.UUID) (*model.QueueEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, entry := range r.s.queue {
		if entry.PatientID == patientID && entry.Status != model.QueueStatusCompleted {
			copied := *entry
			r.join(&copied)
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *queueRepo) ListActiveByDoctor(_ context.Context, doctorID uuid.UUID) ([]*model.QueueEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	entries := []*model.QueueEntry{}
	for _, entry := range r.s.queue {
		if entry.DoctorID == doctorID &&
			(entry.Status == model.QueueStatusWaiting || entry.Status == model.QueueStatusInProgress) {
			copied := *entry
			r.join(&copied)
			entries = append(entries, &copied)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })
	return entries, nil
}

func (r *queueRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.QueueStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, entry := range r.s.queue {
		if entry.ID == id {
			entry.Status = status
			entry.UpdatedAt = time.Now()
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *queueRepo) CompleteAndCompact(_ context.Context, target *model.QueueEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var completed *model.QueueEntry
	for _, entry := range r.s.queue {
		if entry.ID == target.ID {
			completed = entry
			break
		}
	}
	if completed == nil {
		return repository.ErrNotFound
	}
	// already completed entries do not compact the queue a second time
	if completed.Status == model.QueueStatusCompleted {
		return nil
	}
	completed.Status = model.QueueStatusCompleted
	for _, entry := range r.s.queue {
		if entry.DoctorID == completed.DoctorID &&
			entry.Status == model.QueueStatusWaiting &&
			entry.Position > completed.Position {
			entry.Position--
		}
	}
	return nil
}

// appointment repository

type appointmentRepo struct{ s *Store }

func (r *appointmentRepo) CreateIfSlotFree(_ context.Context, appointment *model.Appointment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.appointments {
		if existing.DoctorID == appointment.DoctorID &&
			existing.Date == appointment.Date &&
			existing.StartTime == appointment.StartTime &&
			(existing.Status == model.AppointmentStatusPending ||
				existing.Status == model.AppointmentStatusConfirmed) {
			return repository.ErrDuplicate
		}
	}
	appointment.ID = uuid.New()
	appointment.CreatedAt = time.Now()
	appointment.UpdatedAt = appointment.CreatedAt
	copied := *appointment
	r.s.appointments = append(r.s.appointments, &copied)
	return nil
}

func (r *appointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, appointment := range r.s.appointments {
		if appointment.ID == id {
			copied := *appointment
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *appointmentRepo) GetJoined(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.join(appointment)
	return appointment, nil
}

func (r *appointmentRepo) join(appointment *model.Appointment) {
	if patient, ok := r.s.patients[appointment.PatientID]; ok {
		if user, ok := r.s.users[patient.UserID]; ok {
			appointment.PatientName = user.Name
			appointment.PatientEmail = user.Email
		}
	}
	if doctor, ok := r.s.doctors[appointment.DoctorID]; ok {
		if user, ok := r.s.users[doctor.UserID]; ok {
			appointment.DoctorName = user.Name
		}
	}
}

func (r *appointmentRepo) List(_ context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	matched := []*model.Appointment{}
	for _, appointment := range r.s.appointments {
		if filters.DoctorID != uuid.Nil && appointment.DoctorID != filters.DoctorID {
			continue
		}
		if filters.PatientID != uuid.Nil && appointment.PatientID != filters.PatientID {
			continue
		}
		if filters.Status != "" && appointment.Status != filters.Status {
			continue
		}
		copied := *appointment
		r.join(&copied)
		matched = append(matched, &copied)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date != matched[j].Date {
			return matched[i].Date > matched[j].Date
		}
		return matched[i].StartTime > matched[j].StartTime
	})
	return paginate(matched, filters.Page, filters.Limit), int64(len(matched)), nil
}

func (r *appointmentRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.AppointmentStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, appointment := range r.s.appointments {
		if appointment.ID == id {
			appointment.Status = status
			appointment.UpdatedAt = time.Now()
			return nil
		}
	}
	return repository.ErrNotFound
}

// token repository

type tokenRepo struct{ s *Store }

func (r *tokenRepo) Save(_ context.Context, userID uuid.UUID, token string, _ int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tokens[userID] = token
	return nil
}

func (r *tokenRepo) Valid(_ context.Context, userID uuid.UUID, token string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.tokens[userID]
	return ok && stored == token, nil
}

func (r *tokenRepo) Revoke(_ context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, userID)
	return nil
}

func paginate[T any](items []*T, page, limit int) []*T {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return items
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []*T{}
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
