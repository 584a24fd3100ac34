// Package service implements account registration, login and profile
// management for the resident directory.
package service

import (
	"context"
	"log/slog"
	"strings"

	internalaudit "courtyard/internal/audit"
	communitymodels "courtyard/internal/community/models"
	directory "courtyard/internal/directory/models"
	"courtyard/internal/platform/metrics"
	"courtyard/internal/state"
	id "courtyard/pkg/domain"
	dErrors "courtyard/pkg/domain-errors"
	audit "courtyard/pkg/platform/audit"
	"courtyard/pkg/requestcontext"
)

// Service orchestrates the account lifecycle against the shared state store.
type Service struct {
	state   *state.Store
	logger  *slog.Logger
	emitter *internalaudit.Emitter
	metrics *metrics.Metrics

	auditPublisher internalaudit.Publisher
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher internalaudit.Publisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service over the shared state store.
func New(st *state.Store, opts ...Option) *Service {
	s := &Service{
		state:  st,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.emitter = internalaudit.NewEmitter(s.logger, s.auditPublisher)
	return s
}

// RegisterParams carries the signup form. CommunityName is only read for
// admin signups.
type RegisterParams struct {
	FullName        string
	ApartmentNumber string
	Password        string
	Role            directory.Role
	CommunityName   string
}

// Register creates an account and signs it in. An admin signup also creates
// the community in the same atomic mutation, with the admin as its first
// member, so a crash can never leave an admin without a community.
func (s *Service) Register(ctx context.Context, params RegisterParams) (directory.Account, error) {
	fullName := strings.TrimSpace(params.FullName)
	apartmentNumber := strings.TrimSpace(params.ApartmentNumber)
	communityName := strings.TrimSpace(params.CommunityName)

	if params.Role == directory.RoleAdmin && communityName == "" {
		return directory.Account{}, dErrors.New(dErrors.CodeBadRequest, "community name is required for admin signup")
	}

	var created directory.Account
	var communityID id.CommunityID
	err := s.state.Mutate(ctx, func(st *state.State) error {
		for _, existing := range st.Accounts {
			if existing.ApartmentNumber == apartmentNumber {
				return dErrors.New(dErrors.CodeConflict, "apartment number already registered")
			}
		}

		account, err := directory.NewAccount(id.NewAccountID(), fullName, apartmentNumber, params.Password, params.Role, requestcontext.Now(ctx))
		if err != nil {
			return err
		}

		if account.IsAdmin() {
			// Stamp membership before the community snapshots the admin so
			// the roster entry already carries the community reference.
			communityID = id.NewCommunityID()
			account.ApplyMembership(communityID, communityName)
			comm, err := communitymodels.NewCommunity(communityID, communityName, *account)
			if err != nil {
				return err
			}
			st.Communities = append(st.Communities, *comm)
		}

		st.Accounts = append(st.Accounts, *account)
		session := account.Stripped()
		st.Session = &session
		created = *account
		return nil
	})
	if err != nil {
		return directory.Account{}, err
	}

	s.emitter.Emit(ctx, audit.EventAccountCreated, created.ID, apartmentNumber, "")
	if created.IsAdmin() {
		s.emitter.Emit(ctx, audit.EventCommunityCreated, created.ID, communityName, "")
		if s.metrics != nil {
			s.metrics.CommunitiesCreated.Inc()
		}
	}
	s.emitter.Emit(ctx, audit.EventSessionCreated, created.ID, apartmentNumber, "signup")
	if s.metrics != nil {
		s.metrics.AccountsCreated.Inc()
	}

	s.logger.InfoContext(ctx, "account registered",
		"account_id", created.ID,
		"role", created.Role,
		"community_id", communityID,
	)
	return created.Stripped(), nil
}

// Authenticate checks apartment number and password and signs the account in.
// Unknown apartment and wrong password return the same error so callers
// cannot probe which apartments exist.
func (s *Service) Authenticate(ctx context.Context, apartmentNumber, password string) (directory.Account, error) {
	apartmentNumber = strings.TrimSpace(apartmentNumber)

	account, ok := s.state.AccountByApartment(apartmentNumber)
	if !ok || account.Password != password {
		s.emitter.Emit(ctx, audit.EventAuthFailed, id.AccountID{}, apartmentNumber, "bad credentials")
		if s.metrics != nil {
			s.metrics.AuthFailures.Inc()
		}
		return directory.Account{}, dErrors.New(dErrors.CodeUnauthorized, "invalid apartment number or password")
	}

	err := s.state.Mutate(ctx, func(st *state.State) error {
		current := st.FindAccount(account.ID)
		if current == nil {
			return dErrors.New(dErrors.CodeInternal, "account disappeared during login")
		}
		session := current.Stripped()
		st.Session = &session
		return nil
	})
	if err != nil {
		return directory.Account{}, err
	}

	s.emitter.Emit(ctx, audit.EventSessionCreated, account.ID, apartmentNumber, "login")
	return account.Stripped(), nil
}

// Account returns one account without its password.
func (s *Service) Account(ctx context.Context, accountID id.AccountID) (directory.Account, error) {
	account, ok := s.state.AccountByID(accountID)
	if !ok {
		return directory.Account{}, dErrors.New(dErrors.CodeNotFound, "account not found")
	}
	return account.Stripped(), nil
}

// Session returns the signed-in account, if any.
func (s *Service) Session(ctx context.Context) (directory.Account, bool) {
	return s.state.Session()
}

// UpdateProfile sets the optional contact fields. Empty arguments leave the
// current values untouched. The session snapshot follows the account record.
func (s *Service) UpdateProfile(ctx context.Context, accountID id.AccountID, phoneNumber, profileImageRef string) (directory.Account, error) {
	var updated directory.Account
	err := s.state.Mutate(ctx, func(st *state.State) error {
		account := st.FindAccount(accountID)
		if account == nil {
			return dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		account.ApplyProfileUpdate(strings.TrimSpace(phoneNumber), strings.TrimSpace(profileImageRef))
		if st.Session != nil && st.Session.ID == accountID {
			session := account.Stripped()
			st.Session = &session
		}
		updated = *account
		return nil
	})
	if err != nil {
		return directory.Account{}, err
	}

	s.emitter.Emit(ctx, audit.EventProfileUpdated, accountID, updated.ApartmentNumber, "")
	return updated.Stripped(), nil
}

// Logout clears the session. Safe to call when nobody is signed in.
func (s *Service) Logout(ctx context.Context) error {
	var accountID id.AccountID
	err := s.state.Mutate(ctx, func(st *state.State) error {
		if st.Session != nil {
			accountID = st.Session.ID
		}
		st.Session = nil
		return nil
	})
	if err != nil {
		return err
	}

	if !accountID.IsNil() {
		s.emitter.Emit(ctx, audit.EventSessionCleared, accountID, "", "")
	}
	return nil
}
