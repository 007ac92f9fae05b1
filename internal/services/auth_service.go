package services

import (
	"fmt"
	"sync"

	authorizer "github.com/localnerve/authorizer-go"
	"github.com/sirupsen/logrus"
	"github.com/steelsid0609/training-rcf/internal/config"
	"github.com/steelsid0609/training-rcf/internal/utils"
)

// Session is a validated authorizer session
type Session struct {
	UID   string
	Email string
	Roles []string
}

// Authorizer validates session cookies against the Authorizer service.
// The client is created on first use, once the public host is known.
// Only a successful init is kept; a failed ping is retried on the next request.
type Authorizer struct {
	cfg *config.Config
	log *logrus.Entry

	mu     sync.Mutex
	client *authorizer.AuthorizerClient
}

// NewAuthorizer returns an uninitialized Authorizer
func NewAuthorizer(cfg *config.Config, log *logrus.Entry) *Authorizer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Authorizer{cfg: cfg, log: log.WithField("component", "authorizer")}
}

// Initialized returns true if the Authorizer client is ready
func (a *Authorizer) Initialized() bool {
	return a.current() != nil
}

func (a *Authorizer) current() *authorizer.AuthorizerClient {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.client
}

// Init creates the Authorizer client. It is a no-op once a client exists.
func (a *Authorizer) Init(requestProtocol, requestHost string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.client != nil {
		return nil
	}

	// Ping the Authorizer service first
	if err := utils.PingAuthorizer(a.cfg.AuthzURL); err != nil {
		return fmt.Errorf("authorizer ping failed: %w", err)
	}

	redirectURL := fmt.Sprintf("%s://%s", requestProtocol, requestHost)
	a.log.WithFields(logrus.Fields{
		"authorizer_url": a.cfg.AuthzURL,
		"client_id":      a.cfg.AuthzClientID,
		"redirect_url":   redirectURL,
	}).Info("initializing authorizer")

	client, err := authorizer.NewAuthorizerClient(a.cfg.AuthzClientID, a.cfg.AuthzURL, redirectURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create authorizer client: %w", err)
	}
	a.client = client
	return nil
}

// ValidateSession validates a session cookie for any of the given roles
func (a *Authorizer) ValidateSession(cookie string, roles []string) (*Session, error) {
	client := a.current()
	if client == nil {
		return nil, fmt.Errorf("authorizer client not initialized")
	}

	// Convert roles to []*string
	rolesPtrs := make([]*string, len(roles))
	for i := range roles {
		rolesPtrs[i] = &roles[i]
	}

	res, err := client.ValidateSession(&authorizer.ValidateSessionInput{
		Cookie: cookie,
		Roles:  rolesPtrs,
	})
	if err != nil {
		return nil, fmt.Errorf("session validation failed: %w", err)
	}
	if res == nil || !res.IsValid || res.User == nil {
		return nil, fmt.Errorf("session is not valid")
	}

	session := &Session{UID: res.User.ID, Email: res.User.Email}
	for _, r := range res.User.Roles {
		if r != nil {
			session.Roles = append(session.Roles, *r)
		}
	}
	return session, nil
}
