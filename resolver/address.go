package resolver

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/mwantia/contentfs/data"
)

// secretOptions are masked when an address is printed.
var secretOptions = []string{"secret_key", "session_token", "token", "password"}

// Address is a parsed connection URI.
type Address struct {
	Scheme   string
	User     string
	Password string
	// Host is host[:port], empty when the URI carries none
	Host string
	// Path is the URI path without leading or trailing slashes
	Path    string
	Options map[string]string

	raw *url.URL
}

// ParseAddress splits a connection URI of the form
// scheme://[userinfo@]host[:port]/path?opt=val into its parts.
func ParseAddress(address string) (*Address, error) {
	address = strings.TrimSpace(address)

	// Special 'no address' declaration kept for older configurations
	if address == ":ephemeral:" {
		address = "mem://"
	}

	if !strings.Contains(address, "://") {
		return nil, fmt.Errorf("%w: malformed address '%s'", data.ErrUnsupportedBackend, address)
	}

	u, err := url.Parse(address)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed address: %v", data.ErrUnsupportedBackend, err)
	}

	addr := &Address{
		Scheme:  strings.ToLower(u.Scheme),
		Host:    u.Host,
		Path:    strings.Trim(u.Path, "/"),
		Options: make(map[string]string),
		raw:     u,
	}

	if u.User != nil {
		addr.User = u.User.Username()
		addr.Password, _ = u.User.Password()
	}

	for key, values := range u.Query() {
		if len(values) > 0 {
			addr.Options[strings.ToLower(key)] = values[0]
		}
	}

	return addr, nil
}

// Segments returns the path split into its elements.
func (a *Address) Segments() []string {
	if a.Path == "" {
		return nil
	}
	return strings.Split(a.Path, "/")
}

// take removes and returns the named options.
func (a *Address) take(keys ...string) map[string]string {
	taken := make(map[string]string)
	for _, key := range keys {
		if value, exists := a.Options[key]; exists {
			taken[key] = value
			delete(a.Options, key)
		}
	}
	return taken
}

// Decode decodes the remaining options into target. Options that target
// does not declare are rejected with data.ErrUnsupportedBackend.
func (a *Address) Decode(target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           target,
		TagName:          "mapstructure",
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(a.Options); err != nil {
		return fmt.Errorf("%w: invalid options for scheme '%s': %v", data.ErrUnsupportedBackend, a.Scheme, err)
	}
	return nil
}

// Redacted returns the address with credentials masked.
func (a *Address) Redacted() string {
	if a.raw == nil {
		return ""
	}

	u := *a.raw
	query := u.Query()
	for _, key := range secretOptions {
		if query.Has(key) {
			query.Set(key, "xxxxx")
		}
	}
	u.RawQuery = query.Encode()

	return u.Redacted()
}

func (a *Address) String() string {
	return a.Redacted()
}
