package schemas

import (
	"errors"
	"fmt"
	"time"
)

var ErrMalformed = errors.New("malformed document")

type Kind string

const (
	KIND_TREE    Kind = "tree"
	KIND_CLEANUP Kind = "cleanup"
	KIND_SOLAR   Kind = "solar"
)

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KIND_TREE, KIND_CLEANUP, KIND_SOLAR:
		return k, true
	}
	return "", false
}

const (
	STATUS_PENDING  = "pending"
	STATUS_APPROVED = "approved"
	STATUS_REJECTED = "rejected"
)

// Submission is a proof record for one activity. Tree submissions carry a
// before/after photo pair, cleanup and solar submissions a single photo.
// Solar submissions are filed by the installer against a SolarRequest.
type Submission struct {
	Id         string     `bson:"_id" json:"id"`
	Kind       Kind       `bson:"kind" json:"kind"`
	UserId     string     `bson:"userId" json:"userId"`
	BeforeUrl  string     `bson:"beforeUrl,omitempty" json:"beforeUrl,omitempty"`
	AfterUrl   string     `bson:"afterUrl,omitempty" json:"afterUrl,omitempty"`
	ImageUrl   string     `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	RequestId  string     `bson:"requestId,omitempty" json:"requestId,omitempty"`
	EventId    string     `bson:"eventId,omitempty" json:"eventId,omitempty"`
	Location   string     `bson:"location,omitempty" json:"location,omitempty"`
	Status     string     `bson:"status" json:"status"`
	Rating     *int       `bson:"rating,omitempty" json:"rating,omitempty"`
	Tokens     *int       `bson:"tokens,omitempty" json:"tokens,omitempty"`
	ReviewedBy string     `bson:"reviewedBy,omitempty" json:"reviewedBy,omitempty"`
	ReviewedAt *time.Time `bson:"reviewedAt,omitempty" json:"reviewedAt,omitempty"`
	Ctime      time.Time  `bson:"ctime" json:"ctime"`
}

// Source identifies the submission in the ledger.
func (s *Submission) Source() string {
	return string(s.Kind) + ":" + s.Id
}

// Award is the token amount currently granted by the submission.
// Anything other than an approved submission grants nothing, and an
// approved one without a tokens field grants 0.
func (s *Submission) Award() int {
	if s.Status != STATUS_APPROVED || s.Tokens == nil {
		return 0
	}
	return *s.Tokens
}

// Deletable reports whether the owner may still remove the submission.
func (s *Submission) Deletable() bool {
	return s.Status == STATUS_PENDING || s.Status == STATUS_REJECTED
}

// Validate checks the kind specific shape of a stored submission.
func (s *Submission) Validate() error {

	if s.Id == "" || s.UserId == "" {
		return fmt.Errorf("%w: submission missing id or owner", ErrMalformed)
	}

	switch s.Status {
	case STATUS_PENDING, STATUS_APPROVED, STATUS_REJECTED:
	default:
		return fmt.Errorf("%w: submission %s has status %q", ErrMalformed, s.Id, s.Status)
	}

	if s.Tokens != nil && *s.Tokens < 0 {
		return fmt.Errorf("%w: submission %s has negative tokens", ErrMalformed, s.Id)
	}

	switch s.Kind {
	case KIND_TREE:
		if s.BeforeUrl == "" || s.AfterUrl == "" {
			return fmt.Errorf("%w: tree submission %s missing photos", ErrMalformed, s.Id)
		}
	case KIND_CLEANUP:
		if s.ImageUrl == "" {
			return fmt.Errorf("%w: cleanup submission %s missing photo", ErrMalformed, s.Id)
		}
	case KIND_SOLAR:
		if s.ImageUrl == "" || s.RequestId == "" {
			return fmt.Errorf("%w: solar submission %s missing photo or request", ErrMalformed, s.Id)
		}
	default:
		return fmt.Errorf("%w: submission %s has kind %q", ErrMalformed, s.Id, s.Kind)
	}

	return nil

}
