package ntfy

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/coregx/ntfy/model"
)

// ServerProfile describes one named ntfy server and the topics bound on it.
type ServerProfile struct {
	Name     string   `yaml:"name"`
	BaseURL  string   `yaml:"base_url"`
	Token    string   `yaml:"token,omitempty"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Topics   []string `yaml:"topics"`
}

// Validate checks the profile.
func (p ServerProfile) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
		validation.Field(&p.BaseURL, validation.Required, is.URL),
		validation.Field(&p.Token, validation.When(p.Username != "", validation.Empty.Error("cannot be combined with username"))),
		validation.Field(&p.Password, validation.When(p.Username == "", validation.Empty.Error("requires username"))),
		validation.Field(&p.Topics, validation.Each(validation.By(func(v interface{}) error {
			s, _ := v.(string)
			return model.ValidateTopic(s)
		}))),
	)
}

// Auth returns the profile's credentials, or nil for anonymous access.
func (p ServerProfile) Auth() Auth {
	switch {
	case p.Token != "":
		return BearerToken(p.Token)
	case p.Username != "":
		return BasicAuth(p.Username, p.Password)
	default:
		return nil
	}
}

// Registry holds one Client per configured server and one TopicClient per
// (server, topic) pair, all built once at construction.
type Registry struct {
	profiles []ServerProfile
	clients  map[string]*Client
	topics   map[string]*TopicClient
}

// NewRegistry builds clients for profiles. opts are applied to every
// client before the profile's own base URL and credentials.
//
// Example:
//
//	reg, err := ntfy.NewRegistry([]ntfy.ServerProfile{{
//	    Name:    "home",
//	    BaseURL: "https://ntfy.example.com",
//	    Token:   token,
//	    Topics:  []string{"alerts", "backups"},
//	}}, ntfy.WithLogger(logger))
//
//	alerts, err := reg.Topic("home", "alerts")
func NewRegistry(profiles []ServerProfile, opts ...Option) (*Registry, error) {
	r := &Registry{
		clients: make(map[string]*Client, len(profiles)),
		topics:  make(map[string]*TopicClient),
	}

	for _, p := range profiles {
		if err := p.Validate(); err != nil {
			return nil, NewErrorWithCause(ErrCodeConfiguration, fmt.Sprintf("invalid server %q", p.Name), err)
		}
		if _, ok := r.clients[p.Name]; ok {
			return nil, NewError(ErrCodeConfiguration, fmt.Sprintf("duplicate server %q", p.Name))
		}

		clientOpts := append(append([]Option(nil), opts...), WithBaseURL(p.BaseURL))
		if auth := p.Auth(); auth != nil {
			clientOpts = append(clientOpts, WithAuth(auth))
		}
		client, err := NewClient(clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("server %q: %w", p.Name, err)
		}

		for _, topic := range p.Topics {
			id := TopicID(p.Name, topic)
			if _, ok := r.topics[id]; ok {
				return nil, NewError(ErrCodeConfiguration, fmt.Sprintf("duplicate topic id %q", id))
			}
			tc, err := NewTopicClient(topic, client)
			if err != nil {
				return nil, fmt.Errorf("server %q: %w", p.Name, err)
			}
			r.topics[id] = tc
		}

		r.clients[p.Name] = client
		r.profiles = append(r.profiles, p)
	}

	return r, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(s), "_"), "_")
}

// TopicID returns the identifier of a (server, topic) binding,
// e.g. TopicID("ntfy.sh", "my-alerts") is "ntfy_sh_my_alerts".
func TopicID(server, topic string) string {
	return slug(server) + "_" + slug(topic)
}

// Servers returns the configured profiles in configuration order.
func (r *Registry) Servers() []ServerProfile {
	return append([]ServerProfile(nil), r.profiles...)
}

// Client returns the client of a named server.
func (r *Registry) Client(server string) (*Client, error) {
	c, ok := r.clients[server]
	if !ok {
		return nil, NewError(ErrCodeConfiguration, fmt.Sprintf("no server with name %s is registered", server))
	}
	return c, nil
}

// Topic returns the binding of a configured topic on a named server.
func (r *Registry) Topic(server, topic string) (*TopicClient, error) {
	if _, err := r.Client(server); err != nil {
		return nil, err
	}
	return r.TopicByID(TopicID(server, topic))
}

// TopicByID returns a binding by its TopicID.
func (r *Registry) TopicByID(id string) (*TopicClient, error) {
	tc, ok := r.topics[id]
	if !ok {
		return nil, NewError(ErrCodeConfiguration, fmt.Sprintf("no topic client with id %s is registered", id))
	}
	return tc, nil
}

// Describe lists servers and their topics, one block per server.
func (r *Registry) Describe() string {
	var b strings.Builder
	for _, p := range r.profiles {
		fmt.Fprintf(&b, "server: %s\ntopics: %s\n", p.Name, strings.Join(p.Topics, ", "))
	}
	return b.String()
}
