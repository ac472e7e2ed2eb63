package hibp

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pwnalert/hibp/internal/cache"
	"go.uber.org/zap"
)

//go:generate mockgen -package mockhibp -destination ./mock/mockbreach.go . BreachProvider
type BreachProvider interface {
	// BreachedAccount lists the breaches an account appears in. An
	// account that appears in no breach returns an empty slice and no
	// error.
	BreachedAccount(ctx context.Context, account string) ([]Breach, error)
	// Breach looks up a single breach by name.
	Breach(ctx context.Context, name string) (*Breach, error)
}

//go:generate mockgen -package mockhibp -destination ./mock/mockpaste.go . PasteProvider
type PasteProvider interface {
	// PasteAccount lists the pastes an account appears in. An account
	// that appears in no paste returns an empty slice and no error.
	PasteAccount(ctx context.Context, account string) ([]Paste, error)
}

//go:generate mockgen -package mockhibp -destination ./mock/mockpassword.go . PwnedPasswordProvider
type PwnedPasswordProvider interface {
	// PwnedPasswordRange returns the suffix-to-count map for a five
	// character uppercase SHA-1 prefix.
	PwnedPasswordRange(ctx context.Context, prefix string) (map[string]int64, error)
	// PwnedPasswordCount reports how often a password appears in known
	// breaches, using the k-anonymity range endpoint. The password
	// itself never leaves the process.
	PwnedPasswordCount(ctx context.Context, password string) (int64, error)
}

// Provider is the combined capability covering breach, paste and
// pwned-password lookups.
type Provider interface {
	BreachProvider
	PasteProvider
	PwnedPasswordProvider
}

var _ Provider = (*Service)(nil)

// Service implements all lookup capabilities on top of the two named
// clients. Register binds it once per process; every capability
// interface resolves to the same instance.
type Service struct {
	breach    *HTTPClient
	passwords *HTTPClient
	ranges    *cache.RangeCache
	logger    *zap.Logger
}

type ServiceParams struct {
	BreachClient    *HTTPClient
	PasswordsClient *HTTPClient
	Logger          *zap.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.BreachClient == nil {
		return nil, &InvalidArgumentError{Param: "BreachClient"}
	}
	if params.PasswordsClient == nil {
		return nil, &InvalidArgumentError{Param: "PasswordsClient"}
	}

	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ranges, err := cache.NewRangeCache(cache.NewConfig())
	if err != nil {
		return nil, err
	}

	return &Service{
		breach:    params.BreachClient,
		passwords: params.PasswordsClient,
		ranges:    ranges,
		logger:    logger,
	}, nil
}

// Shutdown releases the range cache. The samber/do injector calls it on
// scope shutdown; fx wiring hooks it into OnStop.
func (s *Service) Shutdown() error {
	s.ranges.Close()
	return nil
}

func (s *Service) BreachedAccount(ctx context.Context, account string) ([]Breach, error) {
	if account == "" {
		return nil, &InvalidArgumentError{Param: "account"}
	}

	ref := "breachedaccount/" + url.PathEscape(account) + "?truncateResponse=false"

	var breaches []Breach
	if err := s.getJSON(ctx, s.breach, ref, &breaches); err != nil {
		return nil, err
	}
	return breaches, nil
}

func (s *Service) Breach(ctx context.Context, name string) (*Breach, error) {
	if name == "" {
		return nil, &InvalidArgumentError{Param: "name"}
	}

	var breach Breach
	if err := s.getJSON(ctx, s.breach, "breach/"+url.PathEscape(name), &breach); err != nil {
		return nil, err
	}
	if breach.Name == "" {
		return nil, nil
	}
	return &breach, nil
}

func (s *Service) PasteAccount(ctx context.Context, account string) ([]Paste, error) {
	if account == "" {
		return nil, &InvalidArgumentError{Param: "account"}
	}

	var pastes []Paste
	if err := s.getJSON(ctx, s.breach, "pasteaccount/"+url.PathEscape(account), &pastes); err != nil {
		return nil, err
	}
	return pastes, nil
}

func (s *Service) PwnedPasswordRange(ctx context.Context, prefix string) (map[string]int64, error) {
	prefix = strings.ToUpper(prefix)
	if !validRangePrefix(prefix) {
		return nil, fmt.Errorf("hibp: range prefix must be 5 hexadecimal characters, got %q", prefix)
	}

	if suffixes, found := s.ranges.Get(prefix); found {
		return suffixes, nil
	}

	req, err := s.passwords.NewRequest(ctx, http.MethodGet, "range/"+prefix)
	if err != nil {
		return nil, err
	}

	resp, err := s.passwords.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Client: s.passwords.Name(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	suffixes, err := parseRange(body)
	if err != nil {
		return nil, err
	}
	s.ranges.Set(prefix, suffixes)

	return suffixes, nil
}

func (s *Service) PwnedPasswordCount(ctx context.Context, password string) (int64, error) {
	if password == "" {
		return 0, &InvalidArgumentError{Param: "password"}
	}

	sum := sha1.Sum([]byte(password))
	digest := strings.ToUpper(hex.EncodeToString(sum[:]))

	suffixes, err := s.PwnedPasswordRange(ctx, digest[:5])
	if err != nil {
		return 0, err
	}

	return suffixes[digest[5:]], nil
}

// getJSON performs a GET against a named client and decodes the JSON
// body. A 404 means "not found" for every lookup endpoint and decodes
// to the zero value with no error.
func (s *Service) getJSON(ctx context.Context, client *HTTPClient, ref string, out any) error {
	req, err := client.NewRequest(ctx, http.MethodGet, ref)
	if err != nil {
		return err
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		return json.NewDecoder(resp.Body).Decode(out)
	case http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil
	default:
		io.Copy(io.Discard, resp.Body)
		return &StatusError{Client: client.Name(), StatusCode: resp.StatusCode}
	}
}

func validRangePrefix(prefix string) bool {
	if len(prefix) != 5 {
		return false
	}
	for _, r := range prefix {
		if (r < '0' || r > '9') && (r < 'A' || r > 'F') {
			return false
		}
	}
	return true
}

// parseRange decodes the text/plain range body, one "SUFFIX:COUNT" pair
// per line.
func parseRange(body []byte) (map[string]int64, error) {
	suffixes := make(map[string]int64)

	for line := range strings.Lines(string(body)) {
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}

		suffix, count, ok := strings.Cut(line, ":")
		if !ok {
			return nil, fmt.Errorf("hibp: malformed range line %q", line)
		}

		n, err := strconv.ParseInt(count, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("hibp: malformed range count in line %q: %w", line, err)
		}

		suffixes[suffix] = n
	}

	return suffixes, nil
}
