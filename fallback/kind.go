package fallback

import "fmt"

// Kind categorizes why an intent could not be handled normally.
type Kind int

const (
	NotUnderstood Kind = iota
	NotInstalled
	NotLoaded
	NotEnabled
	BadSkill
	ErrorOnSkill
	ErrorOnCore
	ErrorOnNetwork
	ErrorOnOther
	ErrorOnUnknown
	ErrorOnTimeout
)

var kindNames = [...]string{
	NotUnderstood:  "not_understood",
	NotInstalled:   "not_installed",
	NotLoaded:      "not_loaded",
	NotEnabled:     "not_enabled",
	BadSkill:       "bad_skill",
	ErrorOnSkill:   "error_on_skill",
	ErrorOnCore:    "error_on_core",
	ErrorOnNetwork: "error_on_network",
	ErrorOnOther:   "error_on_other",
	ErrorOnUnknown: "error_on_unknown",
	ErrorOnTimeout: "error_on_timeout",
}

// Kinds lists every Kind in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, len(kindNames))
	for i := range kindNames {
		kinds[i] = Kind(i)
	}
	return kinds
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind is the inverse of String.
func ParseKind(s string) (Kind, error) {
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(kindNames[k]), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
