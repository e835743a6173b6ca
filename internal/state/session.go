package state

import (
	"context"

	"medminder-go/internal/domain/medication"
	"medminder-go/internal/remote"
)

// Login signs in remotely and replaces the state with the account's data.
// On failure the state is left as it was.
func (s *Store) Login(ctx context.Context, email, password string) error {
	return s.run(ctx, "login", true, func(strategy) (func(), error) {
		return s.signIn(ctx, email, password)
	})
}

// Signup creates the remote account and then signs in with the same
// credentials. An account created before a failed sign-in is kept.
func (s *Store) Signup(ctx context.Context, email, password string, profile medication.Profile) error {
	return s.run(ctx, "signup", true, func(strategy) (func(), error) {
		if err := s.api.Users.Signup(ctx, email, password, profile); err != nil {
			return nil, err
		}
		return s.signIn(ctx, email, password)
	})
}

func (s *Store) signIn(ctx context.Context, email, password string) (func(), error) {
	if err := s.api.Users.Login(ctx, email, password); err != nil {
		return nil, err
	}

	user, err := s.api.Users.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, remote.ErrNotAuthenticated
	}

	snap, err := s.loadRemote(ctx, user)
	if err != nil {
		return nil, err
	}
	return s.enter(snap, remoteStrategy{api: s.api}), nil
}

// Logout ends the remote session and resets to fresh demo data. The reset
// happens even when the remote sign-out fails; that failure is still
// reported.
func (s *Store) Logout(ctx context.Context) error {
	return s.run(ctx, "logout", true, func(strategy) (func(), error) {
		err := s.api.Users.Logout(ctx)
		return s.enter(s.demoSnapshot(), localStrategy{}), err
	})
}

// LoadInitialData resolves the remote session once at startup. With a
// session the account's data replaces the state; without one the store
// stays in demo mode, keeping restored demo data and dropping restored
// account data. If the lookup fails, the restored state and its mode are
// kept and the error is recorded.
func (s *Store) LoadInitialData(ctx context.Context) error {
	return s.run(ctx, "load_initial_data", true, func(strategy) (func(), error) {
		user, err := s.api.Users.GetCurrentUser(ctx)
		if err != nil {
			return nil, err
		}

		if user == nil {
			return func() {
				if s.data.User.IsLoggedIn {
					s.data = s.demoSnapshot()
				}
				s.strategy = localStrategy{}
			}, nil
		}

		snap, err := s.loadRemote(ctx, user)
		if err != nil {
			return nil, err
		}
		return s.enter(snap, remoteStrategy{api: s.api}), nil
	})
}

func (s *Store) loadRemote(ctx context.Context, user *medication.User) (Snapshot, error) {
	meds, err := s.api.Medications.GetAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	reminders, err := s.api.Reminders.GetAll(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{Medications: meds, Reminders: reminders, User: *user}
	snap.User.IsLoggedIn = true
	normalize(&snap)
	return snap, nil
}

func (s *Store) enter(snap Snapshot, st strategy) func() {
	return func() {
		s.data = snap
		s.strategy = st
	}
}
