// Package accounts lists, edits and verifies NGO and volunteer accounts. An
// account lives in the users collection; its profile is stored under the same
// id in the collection for its role.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/phillip/ngo-admin-console/audit"
	"github.com/phillip/ngo-admin-console/models"
	"github.com/phillip/ngo-admin-console/store"
)

var (
	ErrNotFound   = errors.New("account not found")
	ErrNoProfile  = errors.New("profile not found")
	// ErrNotPending is returned when approving or rejecting an NGO whose
	// profile was already decided.
	ErrNotPending = errors.New("ngo is not pending approval")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

type Service struct {
	store    store.Store
	resolver *Resolver
	audit    audit.Publisher
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewService(s store.Store, r *Resolver, p audit.Publisher, log *zap.SugaredLogger) *Service {
	if p == nil {
		p = audit.Nop{}
	}
	return &Service{store: s, resolver: r, audit: p, log: log, now: time.Now}
}

func profileCollection(role string) string {
	if role == models.RoleVolunteer {
		return store.Volunteers
	}
	return store.NGOs
}

func (s *Service) accountsByRole(ctx context.Context, role string) ([]models.Account, error) {
	docs, err := s.store.Query(ctx, store.Users, store.Query{Field: "role", Equals: role})
	if err != nil {
		return nil, fmt.Errorf("list %s accounts: %w", role, err)
	}
	return store.DecodeAll[models.Account](docs, func(id any, err error) {
		s.log.Warnw("skipping malformed account", "id", id, "error", err)
	}), nil
}

func (s *Service) account(ctx context.Context, id, role string) (models.Account, error) {
	doc, err := s.store.GetByID(ctx, store.Users, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Account{}, ErrNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	var acc models.Account
	if err := store.Decode(doc, &acc); err != nil {
		return models.Account{}, fmt.Errorf("decode account %s: %w", id, err)
	}
	if acc.Role != role {
		return models.Account{}, ErrNotFound
	}
	return acc, nil
}

func (s *Service) ListNGOs(ctx context.Context) ([]models.NGOAccount, error) {
	accs, err := s.accountsByRole(ctx, models.RoleNGO)
	if err != nil {
		return nil, err
	}
	return s.resolver.NGOs(ctx, accs)
}

func (s *Service) GetNGO(ctx context.Context, id string) (models.NGOAccount, error) {
	acc, err := s.account(ctx, id, models.RoleNGO)
	if err != nil {
		return models.NGOAccount{}, err
	}
	out, err := s.resolver.NGOs(ctx, []models.Account{acc})
	if err != nil {
		return models.NGOAccount{}, err
	}
	return out[0], nil
}

func (s *Service) ListVolunteers(ctx context.Context) ([]models.VolunteerAccount, error) {
	accs, err := s.accountsByRole(ctx, models.RoleVolunteer)
	if err != nil {
		return nil, err
	}
	return s.resolver.Volunteers(ctx, accs)
}

func (s *Service) GetVolunteer(ctx context.Context, id string) (models.VolunteerAccount, error) {
	acc, err := s.account(ctx, id, models.RoleVolunteer)
	if err != nil {
		return models.VolunteerAccount{}, err
	}
	out, err := s.resolver.Volunteers(ctx, []models.Account{acc})
	if err != nil {
		return models.VolunteerAccount{}, err
	}
	return out[0], nil
}

// PendingNGOs lists NGO accounts whose profile exists and is still pending.
func (s *Service) PendingNGOs(ctx context.Context) ([]models.NGOAccount, error) {
	all, err := s.ListNGOs(ctx)
	if err != nil {
		return nil, err
	}
	pending := make([]models.NGOAccount, 0, len(all))
	for _, a := range all {
		if a.HasProfile && a.VerificationStatus == models.StatusPending {
			pending = append(pending, a)
		}
	}
	return pending, nil
}

// Approve marks an NGO profile verified by actor.
func (s *Service) Approve(ctx context.Context, id, actor string) (models.NGOAccount, error) {
	return s.decide(ctx, id, actor, bson.M{
		"verificationStatus": models.StatusVerified,
		"verifiedAt":         s.now().UTC(),
		"verifiedBy":         actor,
	}, audit.NGOVerified, nil)
}

// Reject marks an NGO profile rejected. An empty reason is stored as null.
func (s *Service) Reject(ctx context.Context, id, actor, reason string) (models.NGOAccount, error) {
	var stored any
	if reason = strings.TrimSpace(reason); reason != "" {
		stored = reason
	}
	return s.decide(ctx, id, actor, bson.M{
		"verificationStatus": models.StatusRejected,
		"rejectedAt":         s.now().UTC(),
		"rejectedBy":         actor,
		"rejectionReason":    stored,
	}, audit.NGORejected, map[string]any{"reason": reason})
}

func (s *Service) decide(ctx context.Context, id, actor string, fields bson.M, event string, data map[string]any) (models.NGOAccount, error) {
	doc, err := s.store.GetByID(ctx, store.NGOs, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.NGOAccount{}, ErrNoProfile
	}
	if err != nil {
		return models.NGOAccount{}, fmt.Errorf("load ngo %s: %w", id, err)
	}
	var current models.NGOProfile
	if err := store.Decode(doc, &current); err != nil {
		return models.NGOAccount{}, fmt.Errorf("decode ngo %s: %w", id, err)
	}
	if current.Status() != models.StatusPending {
		return models.NGOAccount{}, ErrNotPending
	}

	err = s.store.Update(ctx, store.NGOs, id, fields)
	if errors.Is(err, store.ErrNotFound) {
		return models.NGOAccount{}, ErrNoProfile
	}
	if err != nil {
		return models.NGOAccount{}, fmt.Errorf("update ngo %s: %w", id, err)
	}
	s.log.Infow("ngo verification changed", "id", id, "status", fields["verificationStatus"], "by", actor)
	audit.Emit(ctx, s.audit, s.log, audit.New(event, actor, id, data))

	acc, err := s.account(ctx, id, models.RoleNGO)
	if errors.Is(err, ErrNotFound) {
		// profile without a users row; still report the decision
		acc = models.Account{ID: id, Role: models.RoleNGO}
	} else if err != nil {
		return models.NGOAccount{}, err
	}
	out, err := s.resolver.NGOs(ctx, []models.Account{acc})
	if err != nil {
		return models.NGOAccount{}, err
	}
	return out[0], nil
}

type NGOUpdate struct {
	Email               *string  `json:"email"`
	OrganizationName    *string  `json:"organizationName"`
	PhoneNumber         *string  `json:"phoneNumber"`
	Address             *string  `json:"address"`
	AreasOfOperation    []string `json:"areasOfOperation"`
	TargetBeneficiaries []string `json:"targetBeneficiaries"`
}

func (u NGOUpdate) profileFields() bson.M {
	set := bson.M{}
	if u.OrganizationName != nil {
		set["organizationName"] = strings.TrimSpace(*u.OrganizationName)
	}
	if u.PhoneNumber != nil {
		set["phoneNumber"] = strings.TrimSpace(*u.PhoneNumber)
	}
	if u.Address != nil {
		set["location"] = bson.M{"address": strings.TrimSpace(*u.Address)}
	}
	if u.AreasOfOperation != nil {
		set["areasOfOperation"] = u.AreasOfOperation
	}
	if u.TargetBeneficiaries != nil {
		set["targetBeneficiaries"] = u.TargetBeneficiaries
	}
	return set
}

func (s *Service) UpdateNGO(ctx context.Context, id string, u NGOUpdate, actor string) (models.NGOAccount, error) {
	acc, err := s.account(ctx, id, models.RoleNGO)
	if err != nil {
		return models.NGOAccount{}, err
	}
	if err := s.update(ctx, acc, u.Email, u.profileFields(), actor); err != nil {
		return models.NGOAccount{}, err
	}
	return s.GetNGO(ctx, id)
}

type VolunteerUpdate struct {
	Email         *string             `json:"email"`
	FullName      *string             `json:"fullName"`
	DateOfBirth   *string             `json:"dateOfBirth"`
	Location      *string             `json:"location"`
	FieldOfStudy  *string             `json:"fieldOfStudy"`
	HighestDegree *string             `json:"highestDegree"`
	Interests     []string            `json:"interests"`
	Skills        map[string][]string `json:"skills"`
}

func (u VolunteerUpdate) profileFields() (bson.M, error) {
	set := bson.M{}
	str := map[string]*string{
		"fullName":      u.FullName,
		"location":      u.Location,
		"fieldOfStudy":  u.FieldOfStudy,
		"highestDegree": u.HighestDegree,
	}
	for k, v := range str {
		if v != nil {
			set[k] = strings.TrimSpace(*v)
		}
	}
	if u.DateOfBirth != nil {
		dob, err := models.ParseTime(*u.DateOfBirth)
		if err != nil {
			return nil, &ValidationError{Field: "dateOfBirth", Message: err.Error()}
		}
		set["dateOfBirth"] = dob
	}
	if u.Interests != nil {
		set["interests"] = u.Interests
	}
	if u.Skills != nil {
		set["skills"] = u.Skills
	}
	return set, nil
}

func (s *Service) UpdateVolunteer(ctx context.Context, id string, u VolunteerUpdate, actor string) (models.VolunteerAccount, error) {
	acc, err := s.account(ctx, id, models.RoleVolunteer)
	if err != nil {
		return models.VolunteerAccount{}, err
	}
	fields, err := u.profileFields()
	if err != nil {
		return models.VolunteerAccount{}, err
	}
	if err := s.update(ctx, acc, u.Email, fields, actor); err != nil {
		return models.VolunteerAccount{}, err
	}
	return s.GetVolunteer(ctx, id)
}

// update writes the email to the account and the remaining fields to the
// profile, creating the profile when it does not exist yet.
func (s *Service) update(ctx context.Context, acc models.Account, email *string, profile bson.M, actor string) error {
	if email == nil && len(profile) == 0 {
		return store.ErrNoFields
	}
	if email != nil {
		e := strings.TrimSpace(*email)
		if e == "" || !strings.Contains(e, "@") {
			return &ValidationError{Field: "email", Message: "must be a valid email address"}
		}
		if err := s.store.Update(ctx, store.Users, acc.ID, bson.M{"email": e}); err != nil {
			return fmt.Errorf("update account %s: %w", acc.ID, err)
		}
	}
	if len(profile) > 0 {
		coll := profileCollection(acc.Role)
		err := s.store.Update(ctx, coll, acc.ID, profile)
		if errors.Is(err, store.ErrNotFound) {
			err = s.store.Set(ctx, coll, acc.ID, profile)
		}
		if err != nil {
			return fmt.Errorf("update profile %s: %w", acc.ID, err)
		}
	}
	fields := make([]string, 0, len(profile)+1)
	for k := range profile {
		fields = append(fields, k)
	}
	if email != nil {
		fields = append(fields, "email")
	}
	audit.Emit(ctx, s.audit, s.log, audit.New(audit.AccountUpdated, actor, acc.ID, map[string]any{"role": acc.Role, "fields": fields}))
	return nil
}

// Delete removes the account of the given role. With cascade the profile is
// removed as well.
func (s *Service) Delete(ctx context.Context, id, role string, cascade bool, actor string) error {
	if _, err := s.account(ctx, id, role); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, store.Users, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	if cascade {
		err := s.store.Delete(ctx, profileCollection(role), id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("delete profile %s: %w", id, err)
		}
	}
	s.log.Infow("account deleted", "id", id, "role", role, "cascade", cascade, "by", actor)
	audit.Emit(ctx, s.audit, s.log, audit.New(audit.AccountDeleted, actor, id, map[string]any{"role": role, "cascade": cascade}))
	return nil
}
