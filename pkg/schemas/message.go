package schemas

import "time"

const (
	SENDER_USER  = "user"
	SENDER_ADMIN = "admin"
)

type ChatMessage struct {
	Id      string    `bson:"_id" json:"id"`
	UserId  string    `bson:"userId" json:"userId"`
	Sender  string    `bson:"sender" json:"sender"`
	Message string    `bson:"message" json:"message"`
	Ctime   time.Time `bson:"ctime" json:"ctime"`
}

// ChatThread summarizes one user's conversation for the admin inbox.
type ChatThread struct {
	UserId      string    `bson:"_id" json:"userId"`
	LastMessage string    `bson:"lastMessage" json:"lastMessage"`
	LastSender  string    `bson:"lastSender" json:"lastSender"`
	LastAt      time.Time `bson:"lastAt" json:"lastAt"`
	Count       int       `bson:"count" json:"count"`
}
