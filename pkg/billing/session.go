package billing

import "context"

// Session is the execution context an operation runs in. Query handlers,
// action handlers and background jobs all provide the current user through it.
type Session interface {
	// CurrentUser returns the authenticated user, or nil when the caller is
	// anonymous.
	CurrentUser(ctx context.Context) (*User, error)
}

// SessionFunc adapts a function to Session.
type SessionFunc func(ctx context.Context) (*User, error)

func (f SessionFunc) CurrentUser(ctx context.Context) (*User, error) {
	return f(ctx)
}

// StaticSession is a Session for a known user, used by background jobs.
func StaticSession(u *User) Session {
	return SessionFunc(func(context.Context) (*User, error) { return u, nil })
}

// currentUser normalises anonymous callers to ErrUnauthenticated.
func currentUser(ctx context.Context, s Session) (*User, error) {
	if s == nil {
		return nil, ErrUnauthenticated
	}
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if u == nil || u.ID == "" {
		return nil, ErrUnauthenticated
	}
	return u, nil
}
