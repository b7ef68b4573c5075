package schemas

import (
	"fmt"
	"time"
)

const (
	SOLAR_REQUEST_OPEN             = "open"
	SOLAR_REQUEST_IN_PROGRESS      = "in progress"
	SOLAR_REQUEST_PENDING_APPROVAL = "pending approval"
	SOLAR_REQUEST_COMPLETED        = "completed"

	SOLAR_APPLICATION_APPLIED  = "applied"
	SOLAR_APPLICATION_ACCEPTED = "accepted"

	SOLAR_REWARD_TYPE = "solar_installation"
)

type SolarRequest struct {
	Id                  string    `bson:"_id" json:"id"`
	UserId              string    `bson:"userId" json:"userId"`
	Description         string    `bson:"description" json:"description"`
	Location            string    `bson:"location" json:"location"`
	Status              string    `bson:"status" json:"status"`
	AcceptedInstallerId string    `bson:"acceptedInstallerId,omitempty" json:"acceptedInstallerId,omitempty"`
	CompletedByOwner    bool      `bson:"completedByOwner" json:"completedByOwner"`
	Ctime               time.Time `bson:"ctime" json:"ctime"`
}

type SolarApplication struct {
	Id        string    `bson:"_id" json:"id"`
	RequestId string    `bson:"requestId" json:"requestId"`
	UserId    string    `bson:"userId" json:"userId"`
	Status    string    `bson:"status" json:"status"`
	Ctime     time.Time `bson:"ctime" json:"ctime"`
}

// SolarReward is recorded once an installation proof is approved. Its id is
// the installation submission id, so re-approval overwrites it.
type SolarReward struct {
	Id           string    `bson:"_id" json:"id"`
	UserId       string    `bson:"userId" json:"userId"`
	RewardTokens int       `bson:"rewardTokens" json:"rewardTokens"`
	Type         string    `bson:"type" json:"type"`
	Ctime        time.Time `bson:"ctime" json:"ctime"`
}

func (r *SolarReward) Source() string {
	return string(KIND_SOLAR) + ":" + r.Id
}

func (r *SolarReward) Validate() error {
	if r.Id == "" || r.UserId == "" {
		return fmt.Errorf("%w: solar reward missing id or owner", ErrMalformed)
	}
	if r.RewardTokens < 0 {
		return fmt.Errorf("%w: solar reward %s has negative tokens", ErrMalformed, r.Id)
	}
	return nil
}
