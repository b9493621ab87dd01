package finding

import (
	"encoding/binary"
	"fmt"
	"slices"

	"github.com/spaolacci/murmur3"
)

// Tag is one resource tag. Order within Finding.ResourceTags carries no
// meaning.
type Tag struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Finding is one check result for one resource in one scan.
type Finding struct {
	ScanID         string              `json:"scan_id,omitempty"`
	Provider       string              `json:"provider,omitempty"`
	CheckID        string              `json:"check_id"`
	Status         Status              `json:"status"`
	StatusExtended string              `json:"status_extended,omitempty"`
	AccountUID     string              `json:"account_uid"`
	AccountName    string              `json:"account_name,omitempty"`
	Region         string              `json:"region"`
	ResourceUID    string              `json:"resource_uid"`
	ResourceName   string              `json:"resource_name,omitempty"`
	ResourceTags   []Tag               `json:"resource_tags,omitempty"`
	Compliance     map[string][]string `json:"compliance,omitempty"`
	Muted          bool                `json:"muted"`
	Delta          Delta               `json:"delta,omitempty"`
}

// Validate checks the fields the engine depends on.
func (f *Finding) Validate() error {
	if f.CheckID == "" {
		return fmt.Errorf("%w: missing check_id", ErrInvalidFinding)
	}
	if !f.Status.IsValid() {
		return fmt.Errorf("%w %q for check %s", ErrInvalidStatus, f.Status, f.CheckID)
	}
	if !f.Delta.IsValid() {
		return fmt.Errorf("%w: unknown delta %q for check %s", ErrInvalidFinding, f.Delta, f.CheckID)
	}
	return nil
}

// DisplayStatus returns MUTED for a muted failing finding and the
// recorded status otherwise. Muting only ever hides failures.
func (f *Finding) DisplayStatus() Status {
	if f.Muted && f.Status == StatusFail {
		return StatusMuted
	}
	return f.Status
}

// RequirementsFor returns the requirement ids this finding maps to in
// the given framework, or nil when the mapping was not precomputed.
func (f *Finding) RequirementsFor(frameworkID string) []string {
	if f.Compliance == nil {
		return nil
	}
	return f.Compliance[frameworkID]
}

// Identity is the stable aggregation key of a finding.
type Identity struct {
	ScanID      string
	AccountUID  string
	Region      string
	ResourceUID string
	CheckID     string
}

// Identity returns the identity of f.
func (f *Finding) Identity() Identity {
	return Identity{
		ScanID:      f.ScanID,
		AccountUID:  f.AccountUID,
		Region:      f.Region,
		ResourceUID: f.ResourceUID,
		CheckID:     f.CheckID,
	}
}

// Key is a 128-bit MurmurHash3 digest of an Identity, cheap to use as
// a map key in hot loops.
type Key [16]byte

// SubjectKey digests the resource name and tags, the resource fields a
// mute rule can match besides the identity. Tag order is ignored.
func (f *Finding) SubjectKey() Key {
	tags := make([]string, 0, len(f.ResourceTags))
	for _, t := range f.ResourceTags {
		tags = append(tags, t.Key+"\x00"+t.Value)
	}
	slices.Sort(tags)
	return digest(append([]string{f.ResourceName}, tags...))
}

// Key hashes the identity. Fields are NUL separated so that
// ("ab","c") and ("a","bc") never collide structurally.
func (id Identity) Key() Key {
	return digest([]string{id.ScanID, id.AccountUID, id.Region, id.ResourceUID, id.CheckID})
}

func digest(parts []string) Key {
	h := murmur3.New128()
	for _, part := range parts {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	h1, h2 := h.Sum128()
	var k Key
	binary.BigEndian.PutUint64(k[:8], h1)
	binary.BigEndian.PutUint64(k[8:], h2)
	return k
}

// String renders the identity for logs.
func (id Identity) String() string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", id.ScanID, id.AccountUID, id.Region, id.ResourceUID, id.CheckID)
}
