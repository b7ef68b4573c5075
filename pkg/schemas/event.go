package schemas

import "time"

const EVENT_REGISTERED = "registered"

// CleanupEvent is a scheduled community cleanup. Cleanup submissions filed
// for the event default to its reward on approval.
type CleanupEvent struct {
	Id           string    `bson:"_id" json:"id"`
	Title        string    `bson:"title" json:"title"`
	Description  string    `bson:"description" json:"description"`
	Location     string    `bson:"location" json:"location"`
	StartsAt     time.Time `bson:"startsAt" json:"startsAt"`
	RewardTokens int       `bson:"rewardTokens" json:"rewardTokens"`
	CreatedBy    string    `bson:"createdBy" json:"createdBy"`
	Ctime        time.Time `bson:"ctime" json:"ctime"`
}

type EventRegistration struct {
	Id      string    `bson:"_id" json:"id"`
	EventId string    `bson:"eventId" json:"eventId"`
	UserId  string    `bson:"userId" json:"userId"`
	Status  string    `bson:"status" json:"status"`
	Ctime   time.Time `bson:"ctime" json:"ctime"`
}
