package personality

// Match levels used by authored compatibility profiles.
const (
	MatchHarmonious    = "harmonious"
	MatchComplementary = "complementary"
	MatchStretch       = "stretch"
)

// CompatibilityProfile is authored guidance for an ordered (subject, counterpart)
// type pair. It is looked up, never computed.
type CompatibilityProfile struct {
	SubjectType      string   `json:"subjectType" yaml:"subjectType" bson:"subjectType"`
	CounterpartType  string   `json:"counterpartType" yaml:"counterpartType" bson:"counterpartType"`
	MatchLevel       string   `json:"matchLevel" yaml:"matchLevel" bson:"matchLevel"`
	Summary          string   `json:"summary,omitempty" yaml:"summary" bson:"summary,omitempty"`
	TensionPoints    []string `json:"tensionPoints" yaml:"tensionPoints" bson:"tensionPoints"`
	Navigation       []string `json:"navigation" yaml:"navigation" bson:"navigation"`
	SharedActivities []string `json:"sharedActivities" yaml:"sharedActivities" bson:"sharedActivities"`
}

// Key returns the profile's lookup key.
func (c CompatibilityProfile) Key() string {
	return CompatibilityKey(c.SubjectType, c.CounterpartType)
}

// CompatibilityKey builds the lookup key subject first, counterpart second.
// ("A", "B") and ("B", "A") are different keys.
func CompatibilityKey(subjectType, counterpartType string) string {
	return subjectType + KeySeparator + counterpartType
}

// CompatibilityIndex is a read-only table of compatibility profiles by key.
type CompatibilityIndex struct {
	entries map[string]CompatibilityProfile
}

// NewCompatibilityIndex indexes profiles by key. Duplicate keys and entries
// missing either type id are rejected.
func NewCompatibilityIndex(profiles []CompatibilityProfile) (*CompatibilityIndex, error) {
	idx := &CompatibilityIndex{entries: make(map[string]CompatibilityProfile, len(profiles))}
	for _, p := range profiles {
		if p.SubjectType == "" || p.CounterpartType == "" {
			return nil, invalidf("compatibility profile %q is missing a type id", p.Key())
		}
		key := p.Key()
		if _, dup := idx.entries[key]; dup {
			return nil, invalidf("duplicate compatibility profile %q", key)
		}
		idx.entries[key] = p
	}
	return idx, nil
}

// Len returns the number of authored pairs.
func (idx *CompatibilityIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Lookup returns the profile stored under the ordered type pair.
func (idx *CompatibilityIndex) Lookup(subjectType, counterpartType string) (CompatibilityProfile, bool) {
	if idx == nil {
		return CompatibilityProfile{}, false
	}
	p, ok := idx.entries[CompatibilityKey(subjectType, counterpartType)]
	return p, ok
}

// Resolve looks up guidance for subject relating to counterpart using their
// primary types. A missing entry is reported as ok == false, not as an error.
// Secondary types are not consulted.
func (idx *CompatibilityIndex) Resolve(subject, counterpart *Profile) (CompatibilityProfile, bool, error) {
	if subject == nil || counterpart == nil {
		return CompatibilityProfile{}, false, invalidf("compatibility needs both profiles")
	}
	p, ok := idx.Lookup(subject.Primary.TypeID, counterpart.Primary.TypeID)
	return p, ok, nil
}
